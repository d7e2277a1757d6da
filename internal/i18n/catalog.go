package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Translation keys used by the screens.
const (
	CommonContinue       = "common.continue"
	CommonNotNow         = "common.notNow"
	CommonSettings       = "common.settings"
	CommonCancel         = "common.cancel"
	CommonDelete         = "common.delete"
	CommonName           = "common.name"
	CommonEnabled        = "common.enabled"
	CommonRequired       = "common.required"
	CommonSelectMultiple = "common.selectMultiple"
	CommonLoading        = "common.loading"
	CommonOffline        = "common.offline"
	CommonDismiss        = "common.dismiss"

	ReceiptLocationAccessTitle   = "receipt.locationAccessTitle"
	ReceiptLocationAccessMessage = "receipt.locationAccessMessage"
	ReceiptLocationErrorTitle    = "receipt.locationErrorTitle"
	ReceiptLocationErrorMessage  = "receipt.locationErrorMessage"

	TagsEnableTag              = "workspace.tags.enableTag"
	TagsEnableTags             = "workspace.tags.enableTags"
	TagsDisableTag             = "workspace.tags.disableTag"
	TagsDisableTags            = "workspace.tags.disableTags"
	TagsDeleteTag              = "workspace.tags.deleteTag"
	TagsDeleteTags             = "workspace.tags.deleteTags"
	TagsDeleteTagConfirmation  = "workspace.tags.deleteTagConfirmation"
	TagsDeleteTagsConfirmation = "workspace.tags.deleteTagsConfirmation"
	TagsCustomTagName          = "workspace.tags.customTagName"
	TagsEmpty                  = "workspace.tags.emptyTags"
	CommonSelected             = "workspace.common.selected"

	ReportEmpty         = "report.empty"
	ReportLoading       = "report.loading"
	ReportSingleExpense = "report.singleExpense"
	ReportExpenses      = "report.expenses"
	ReportTotal         = "report.total"
	ReportNewExpense    = "report.newExpense"
)

var (
	English = language.English
	Spanish = language.Spanish
)

var supported = []language.Tag{English, Spanish}

type entry struct {
	key string
	en  string
	es  string
}

var entries = []entry{
	{CommonContinue, "Continue", "Continuar"},
	{CommonNotNow, "Not now", "Ahora no"},
	{CommonSettings, "Settings", "Configuración"},
	{CommonCancel, "Cancel", "Cancelar"},
	{CommonDelete, "Delete", "Eliminar"},
	{CommonName, "Name", "Nombre"},
	{CommonEnabled, "Enabled", "Habilitado"},
	{CommonRequired, "Required", "Obligatorio"},
	{CommonSelectMultiple, "Select multiple", "Seleccionar varios"},
	{CommonLoading, "Loading...", "Cargando..."},
	{CommonOffline, "You appear to be offline.", "Parece que estás desconectado."},
	{CommonDismiss, "Dismiss", "Descartar"},

	{ReceiptLocationAccessTitle, "Allow location access", "Permitir acceso a la ubicación"},
	{ReceiptLocationAccessMessage, "Location access helps us keep your timezone and currency accurate wherever you go.", "El acceso a la ubicación nos ayuda a mantener precisa tu zona horaria y moneda dondequiera que vayas."},
	{ReceiptLocationErrorTitle, "Location access is blocked", "El acceso a la ubicación está bloqueado"},
	{ReceiptLocationErrorMessage, "You've denied access to your location. Allow location access in your device settings.", "Has denegado el acceso a tu ubicación. Permite el acceso en la configuración de tu dispositivo."},

	{TagsEnableTag, "Enable tag", "Habilitar etiqueta"},
	{TagsEnableTags, "Enable tags", "Habilitar etiquetas"},
	{TagsDisableTag, "Disable tag", "Deshabilitar etiqueta"},
	{TagsDisableTags, "Disable tags", "Deshabilitar etiquetas"},
	{TagsDeleteTag, "Delete tag", "Eliminar etiqueta"},
	{TagsDeleteTags, "Delete tags", "Eliminar etiquetas"},
	{TagsDeleteTagConfirmation, "Are you sure that you want to delete this tag?", "¿Estás seguro de que quieres eliminar esta etiqueta?"},
	{TagsDeleteTagsConfirmation, "Are you sure that you want to delete these tags?", "¿Estás seguro de que quieres eliminar estas etiquetas?"},
	{TagsCustomTagName, "Custom tag name", "Nombre de etiqueta personalizada"},
	{TagsEmpty, "You haven't created any tags", "No has creado ninguna etiqueta"},

	{ReportEmpty, "This report has no activity yet.", "Este informe aún no tiene actividad."},
	{ReportLoading, "Loading report...", "Cargando informe..."},
	{ReportSingleExpense, "Expense", "Gasto"},
	{ReportExpenses, "Expenses", "Gastos"},
	{ReportTotal, "Total", "Total"},
	{ReportNewExpense, "New expense", "Nuevo gasto"},
}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(English))
	for _, e := range entries {
		if err := b.SetString(English, e.key, e.en); err != nil {
			return nil, err
		}
		if err := b.SetString(Spanish, e.key, e.es); err != nil {
			return nil, err
		}
	}
	if err := b.Set(English, CommonSelected,
		plural.Selectf(1, "%d", "=1", "%d selected", "other", "%d selected")); err != nil {
		return nil, err
	}
	if err := b.Set(Spanish, CommonSelected,
		plural.Selectf(1, "%d", "=1", "%d seleccionado", "other", "%d seleccionados")); err != nil {
		return nil, err
	}
	return b, nil
}
