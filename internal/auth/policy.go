package auth

import (
	"github.com/hotube/backend/internal/apperr"
	"github.com/hotube/backend/internal/models"
)

// Action is an operation a principal attempts on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind identifies the kind of record being acted on.
type ResourceKind string

const (
	ResourceVideo   ResourceKind = "video"
	ResourceComment ResourceKind = "comment"
)

// Principal is the member making a request. The zero value is anonymous.
type Principal struct {
	ID   string
	Role models.Role
}

// Anonymous reports whether the principal could not be identified.
func (p Principal) Anonymous() bool { return p.ID == "" }

// Resource describes the target of an action. OwnerID is the store id of the
// author for comments and empty for videos.
type Resource struct {
	Kind    ResourceKind
	OwnerID string
}

// Policy holds every write-permission rule of the service.
type Policy struct {
	// VideoWritesAdminOnly restricts catalog writes to admin and sub-admin members.
	VideoWritesAdminOnly bool
}

// Authorize returns nil when who may perform action on res, otherwise an
// authorization error.
func (p Policy) Authorize(who Principal, res Resource, action Action) error {
	switch res.Kind {
	case ResourceComment:
		return p.authorizeComment(who, res, action)
	case ResourceVideo:
		return p.authorizeVideo(who)
	default:
		return apperr.Authorization("unknown resource")
	}
}

func (p Policy) authorizeComment(who Principal, res Resource, action Action) error {
	isAuthor := !who.Anonymous() && who.ID == res.OwnerID
	switch action {
	case ActionUpdate:
		if isAuthor {
			return nil
		}
		return apperr.Authorization("only the author can edit this comment")
	case ActionDelete:
		if isAuthor || who.Role == models.RoleAdmin {
			return nil
		}
		return apperr.Authorization("you do not have permission to delete this comment")
	case ActionCreate:
		if who.Anonymous() {
			return apperr.Authorization("sign in to comment")
		}
		return nil
	default:
		return apperr.Authorization("unsupported action")
	}
}

func (p Policy) authorizeVideo(who Principal) error {
	if !p.VideoWritesAdminOnly {
		return nil
	}
	if who.Role == models.RoleAdmin || who.Role == models.RoleSubAdmin {
		return nil
	}
	return apperr.Authorization("only family admins can change the catalog")
}
