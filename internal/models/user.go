package models

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleAdmin           Role = "admin"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email     string `gorm:"size:254;not null;uniqueIndex" json:"email"`
	FirstName string `gorm:"size:30" json:"first_name"`
	LastName  string `gorm:"size:40" json:"last_name"`
	Role      Role   `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
}

func (User) TableName() string {
	return "app_user"
}

func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Customer struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Address string `gorm:"size:200" json:"address"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Customer) TableName() string {
	return "customer"
}

// UserCapability grants a single capability to a user on top of their role.
type UserCapability struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_capability" json:"user_id"`
	Name   string `gorm:"size:64;not null;uniqueIndex:idx_user_capability" json:"name"`
}

func (UserCapability) TableName() string {
	return "user_capability"
}
