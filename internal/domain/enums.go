package domain

// ActivityStatus represents the lifecycle state of an activity.
// The set of statuses an activity may move through is declared by its
// template; these are the values known system-wide.
type ActivityStatus string

const (
	StatusConfirmed ActivityStatus = "CONFIRMED"
	StatusCancelled ActivityStatus = "CANCELLED"
	StatusPending   ActivityStatus = "PENDING"
)

func (s ActivityStatus) String() string { return string(s) }

func (s ActivityStatus) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusPending:
		return true
	}
	return false
}

// CanEditRule decides who may edit an activity after creation.
type CanEditRule string

const (
	CanEditAll      CanEditRule = "ALL"
	CanEditNone     CanEditRule = "NONE"
	CanEditCreator  CanEditRule = "CREATOR"
	CanEditEmployee CanEditRule = "EMPLOYEE"
)

func (r CanEditRule) String() string { return string(r) }

func (r CanEditRule) IsValid() bool {
	switch r {
	case CanEditAll, CanEditNone, CanEditCreator, CanEditEmployee:
		return true
	}
	return false
}

// AddendumAction identifies the mutation an addendum records.
type AddendumAction string

const (
	ActionCreate            AddendumAction = "create"
	ActionChangeStatus      AddendumAction = "change-status"
	ActionRemove            AddendumAction = "remove"
	ActionPhoneNumberUpdate AddendumAction = "phone-number-update"
	ActionShare             AddendumAction = "share"
	ActionUpdate            AddendumAction = "update"
	ActionComment           AddendumAction = "comment"
)

func (a AddendumAction) String() string { return string(a) }

func (a AddendumAction) IsValid() bool {
	switch a {
	case ActionCreate, ActionChangeStatus, ActionRemove,
		ActionPhoneNumberUpdate, ActionShare, ActionUpdate, ActionComment:
		return true
	}
	return false
}
