package domain

const (
	RoleAdmin     = "admin"
	RoleShopAdmin = "shop_admin"
)

// ApprovalStatus is the financial approval state of a warranty.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether an administrator may move a warranty from s to next.
// PENDING and REJECTED may be approved; PENDING and APPROVED may be rejected.
func (s ApprovalStatus) CanTransition(next ApprovalStatus) bool {
	switch next {
	case StatusApproved:
		return s == StatusPending || s == StatusRejected
	case StatusRejected:
		return s == StatusPending || s == StatusApproved
	}
	return false
}

// Physical repair lifecycle of warranty parts, claims and claim parts.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

func ValidOpenClosed(s string) bool { return s == StatusOpen || s == StatusClosed }

// Actor is the authenticated caller, passed explicitly to every service call.
type Actor struct {
	UserID   uint
	Username string
	Role     string
	ShopID   *uint
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanAccessShop is true for admins and for shop staff of that shop.
func (a Actor) CanAccessShop(shopID uint) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleShopAdmin && a.ShopID != nil && *a.ShopID == shopID
}

// RequireAdmin returns a ForbiddenError for non-admin actors.
func (a Actor) RequireAdmin(action string) error {
	if a.IsAdmin() {
		return nil
	}
	return Forbidden("only administrators may " + action)
}

// RequireShop returns a ForbiddenError when the actor cannot act for shopID.
func (a Actor) RequireShop(shopID uint) error {
	if a.CanAccessShop(shopID) {
		return nil
	}
	return Forbidden("record belongs to another shop")
}
