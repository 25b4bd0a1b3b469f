package domain

// Role — роль вызывающего пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity — явная идентичность вызывающего, передаётся в каждый usecase
// вместо чтения сессии из глобального состояния.
type Identity struct {
	UserID int64
	Role   Role
}

func NewIdentity(userID int64, role Role) Identity {
	return Identity{UserID: userID, Role: role}
}

// IsAdmin сообщает, обладает ли вызывающий административными правами.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccessOrder проверяет видимость заказа: владелец или администратор.
func (i Identity) CanAccessOrder(orderUserID int64) bool {
	return i.IsAdmin() || i.UserID == orderUserID
}
