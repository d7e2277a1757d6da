package model

import "time"

// PendingAction marks a record that has an optimistic change waiting for the remote.
type PendingAction string

const (
	PendingNone   PendingAction = ""
	PendingAdd    PendingAction = "add"
	PendingUpdate PendingAction = "update"
	PendingDelete PendingAction = "delete"
)

// Errors is keyed by a microsecond timestamp so newer errors sort last.
type Errors map[string]string

type PolicyRole string

const (
	PolicyRoleAdmin   PolicyRole = "admin"
	PolicyRoleUser    PolicyRole = "user"
	PolicyRoleAuditor PolicyRole = "auditor"
)

type PolicyType string

const (
	PolicyTypePersonal  PolicyType = "personal"
	PolicyTypeTeam      PolicyType = "team"
	PolicyTypeCorporate PolicyType = "corporate"
)

// Connection is an external accounting integration (e.g. quickbooksOnline, xero).
type Connection struct {
	Name       string    `json:"name"`
	LastSyncAt time.Time `json:"lastSyncAt,omitempty"`
}

type Policy struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Role           PolicyRole            `json:"role"`
	Type           PolicyType            `json:"type"`
	OwnerEmail     string                `json:"ownerEmail,omitempty"`
	AreTagsEnabled bool                  `json:"areTagsEnabled"`
	Connections    map[string]Connection `json:"connections,omitempty"`
	PendingAction  PendingAction         `json:"pendingAction,omitempty"`
	Errors         Errors                `json:"errors,omitempty"`
}

type TagRules struct {
	ParentTagsFilter string `json:"parentTagsFilter,omitempty"`
}

type PolicyTag struct {
	Name          string                   `json:"name"`
	Enabled       bool                     `json:"enabled"`
	GLCode        string                   `json:"glCode,omitempty"`
	Rules         *TagRules                `json:"rules,omitempty"`
	PendingAction PendingAction            `json:"pendingAction,omitempty"`
	PendingFields map[string]PendingAction `json:"pendingFields,omitempty"`
	Errors        Errors                   `json:"errors,omitempty"`
}

type PolicyTagList struct {
	Name          string                   `json:"name"`
	OrderWeight   int                      `json:"orderWeight"`
	Required      bool                     `json:"required"`
	Tags          map[string]PolicyTag     `json:"tags"`
	PendingAction PendingAction            `json:"pendingAction,omitempty"`
	PendingFields map[string]PendingAction `json:"pendingFields,omitempty"`
	Errors        Errors                   `json:"errors,omitempty"`
	ErrorFields   map[string]Errors        `json:"errorFields,omitempty"`
}

// PolicyTagLists is keyed by tag list name.
type PolicyTagLists map[string]PolicyTagList

type ReportType string

const (
	ReportTypeExpense ReportType = "expense"
	ReportTypeIOU     ReportType = "iou"
	ReportTypeChat    ReportType = "chat"
)

type Report struct {
	ReportID             string                   `json:"reportId"`
	PolicyID             string                   `json:"policyId,omitempty"`
	Type                 ReportType               `json:"type"`
	Name                 string                   `json:"name,omitempty"`
	OwnerEmail           string                   `json:"ownerEmail,omitempty"`
	Total                int64                    `json:"total"`
	Currency             string                   `json:"currency"`
	ParentReportID       string                   `json:"parentReportId,omitempty"`
	ParentReportActionID string                   `json:"parentReportActionId,omitempty"`
	PendingFields        map[string]PendingAction `json:"pendingFields,omitempty"`
	ErrorFields          map[string]Errors        `json:"errorFields,omitempty"`
}

type ReportMetadata struct {
	IsLoadingInitialReportActions bool `json:"isLoadingInitialReportActions,omitempty"`
	HasOlderActions               bool `json:"hasOlderActions,omitempty"`
	HasNewerActions               bool `json:"hasNewerActions,omitempty"`
}

type ActionName string

const (
	ActionCreated    ActionName = "CREATED"
	ActionIOU        ActionName = "IOU"
	ActionAddComment ActionName = "ADDCOMMENT"
	ActionSubmitted  ActionName = "SUBMITTED"
	ActionApproved   ActionName = "APPROVED"
)

type IOUType string

const (
	IOUCreate IOUType = "create"
	IOUTrack  IOUType = "track"
	IOUDelete IOUType = "delete"
	IOUPay    IOUType = "pay"
)

type OriginalMessage struct {
	IOUTransactionID string  `json:"IOUTransactionID,omitempty"`
	Type             IOUType `json:"type,omitempty"`
	Amount           int64   `json:"amount,omitempty"`
	Currency         string  `json:"currency,omitempty"`
}

type ReportAction struct {
	ReportActionID        string           `json:"reportActionId"`
	ActionName            ActionName       `json:"actionName"`
	ActorEmail            string           `json:"actorEmail,omitempty"`
	Created               time.Time        `json:"created"`
	Message               string           `json:"message,omitempty"`
	OriginalMessage       *OriginalMessage `json:"originalMessage,omitempty"`
	ChildReportID         string           `json:"childReportId,omitempty"`
	IsDeletedParentAction bool             `json:"isDeletedParentAction,omitempty"`
	PendingAction         PendingAction    `json:"pendingAction,omitempty"`
	Errors                Errors           `json:"errors,omitempty"`
}

// ReportActions is keyed by report action id.
type ReportActions map[string]ReportAction

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Transaction struct {
	TransactionID string        `json:"transactionId"`
	ReportID      string        `json:"reportId"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Merchant      string        `json:"merchant,omitempty"`
	Created       time.Time     `json:"created"`
	Location      *Location     `json:"location,omitempty"`
	PendingAction PendingAction `json:"pendingAction,omitempty"`
	Errors        Errors        `json:"errors,omitempty"`
}

// Transactions is keyed by transaction id.
type Transactions map[string]Transaction

type Network struct {
	IsOffline  bool      `json:"isOffline"`
	LastSyncAt time.Time `json:"lastSyncAt,omitempty"`
}

type Session struct {
	Email     string `json:"email"`
	AccountID int64  `json:"accountId,omitempty"`
}

// SelectionMode is the narrow-layout multi-select toggle.
type SelectionMode struct {
	IsEnabled bool `json:"isEnabled"`
}
