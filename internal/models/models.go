package models

import "time"

const (
	AccountTypeTelegram = "telegram"
	AccountTypeWhatsapp = "whatsapp"
)

const (
	AccountAvailable = "available"
	AccountReserved  = "reserved"
	AccountSold      = "sold"
)

const (
	OrderPending   = "pending"
	OrderSuccess   = "success"
	OrderFailed    = "failed"
	OrderCancelled = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentDeclined = "declined"
)

type User struct {
	UserID         int64     `gorm:"primaryKey" json:"user_id"`
	Username       string    `json:"username"`
	Balance        float64   `gorm:"default:0" json:"balance"`
	TotalSpent     float64   `gorm:"default:0" json:"total_spent"`
	TotalRefund    float64   `gorm:"default:0" json:"total_refund"`
	AccountsBought int       `gorm:"default:0" json:"accounts_bought"`
	IsBlocked      bool      `gorm:"default:false" json:"is_blocked"`
	IsAdmin        bool      `gorm:"default:false" json:"is_admin"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Orders   []Order   `gorm:"foreignKey:UserID" json:"orders,omitempty"`
	Payments []Payment `gorm:"foreignKey:UserID" json:"payments,omitempty"`
}

type Account struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"index" json:"type"`
	PhoneNumber string    `gorm:"unique" json:"phone_number"`
	OTPCode     string    `json:"otp_code,omitempty"`
	Status      string    `gorm:"default:available;index" json:"status"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Order struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID int64 `gorm:"index" json:"user_id"`
	// ProductType is the inventory pool the order draws from; ProductKey
	// is the exact product bought (OTP vs session decides the price).
	ProductType  string     `json:"product_type"`
	ProductKey   string     `json:"product_key"`
	PhoneNumber  string     `json:"phone_number"`
	OTPCode      string     `json:"otp_code,omitempty"`
	Status       string     `gorm:"default:pending;index" json:"status"`
	Price        float64    `json:"price"`
	RefundAmount float64    `gorm:"default:0" json:"refund_amount"`
	PurchasedAt  time.Time  `gorm:"autoCreateTime" json:"purchased_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Amount    float64   `json:"amount"`
	UTR       string    `json:"utr"`
	Status    string    `gorm:"default:pending;index" json:"status"`
	AdminID   *int64    `json:"admin_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
