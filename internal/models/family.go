package models

// Category is the family branch a member belongs to. Non-admin members only
// see comments written within their own category.
type Category string

const (
	CategoryDad Category = "dad"
	CategoryMom Category = "mom"
	CategoryEtc Category = "etc"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDad, CategoryMom, CategoryEtc:
		return true
	}
	return false
}

// Role is derived from a member's title at registration.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSubAdmin Role = "sub-admin"
	RoleUser     Role = "user"
)

// SeesAllComments reports whether the role bypasses category scoping.
func (r Role) SeesAllComments() bool {
	return r == RoleAdmin || r == RoleSubAdmin
}

// Titles is the fixed vocabulary of family relationship titles.
var Titles = []string{
	"아빠",
	"엄마",
	"수호",
	"친할아버지",
	"친할머니",
	"외할아버지",
	"외할머니",
	"고모",
	"고모부",
	"이모",
	"이모부",
	"외삼촌",
	"기타",
}

// ValidTitle reports whether title belongs to the vocabulary.
func ValidTitle(title string) bool {
	return contains(Titles, title)
}

// RoleForTitle maps a title to the role granted at registration.
func RoleForTitle(title string) Role {
	switch title {
	case "아빠", "엄마":
		return RoleAdmin
	case "수호":
		return RoleSubAdmin
	default:
		return RoleUser
	}
}
