package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 6

	MaxDescriptionLen = 200

	// DefaultCurrency is assigned at registration; amounts are
	// single-currency, the preference only drives display.
	DefaultCurrency = "USD"

	// DefaultCategoryColor is used when a caller adds a category
	// without picking a color.
	DefaultCategoryColor = "#3B82F6"
)

type (
	// UserID is the opaque authenticated identity threaded through every
	// ledger and analytics call.
	UserID string

	// ExpenseID identifies a single expense row.
	ExpenseID string

	Date struct {
		time.Time
	}

	User struct {
		ID           UserID
		Username     string
		Email        string
		Currency     string
		PasswordHash string
		PasswordSalt string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Category struct {
		ID        int64
		UserID    UserID
		Name      string
		Color     string
		CreatedAt time.Time
	}

	Expense struct {
		ID            ExpenseID
		UserID        UserID
		Amount        Money
		Category      string
		Description   string
		Date          Date
		Time          string // "HH:MM", optional
		PaymentMethod string
		TransactionID string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// ExpensePatch carries partial field changes for an update. Nil
	// fields are left untouched.
	ExpensePatch struct {
		Amount        *Money
		Category      *string
		Description   *string
		Date          *Date
		Time          *string
		PaymentMethod *string
		TransactionID *string
	}

	// ExpenseFilter narrows a list query. The zero value matches every
	// expense owned by the caller.
	ExpenseFilter struct {
		From          Date
		To            Date
		Category      string
		Search        string // substring match on description or transaction id
		MinCents      *int64
		MaxCents      *int64
		ExactCents    *int64
		TransactionID string
		Limit         int
	}
)

// DefaultCategories are seeded for every new user at registration.
var DefaultCategories = []Category{
	{Name: "Food & Dining", Color: "#F87171"},
	{Name: "Transportation", Color: "#60A5FA"},
	{Name: "Shopping", Color: "#A78BFA"},
	{Name: "Entertainment", Color: "#FBBF24"},
	{Name: "Bills & Utilities", Color: "#34D399"},
	{Name: "Healthcare", Color: "#FB7185"},
	{Name: "Other", Color: "#9CA3AF"},
}

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// String renders the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// ValidateUsername enforces the registration constraint on usernames.
// Usernames are case-sensitive.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters", ErrValidation, MinUsernameLen)
	}
	if strings.TrimSpace(username) != username {
		return fmt.Errorf("%w: username must not contain leading or trailing whitespace", ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	return nil
}

// ValidateTimeOfDay accepts an empty value or "HH:MM".
func ValidateTimeOfDay(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, s)
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateTimeOfDay(e.Time); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if len(e.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLen)
	}
	return nil
}

func (p ExpensePatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Time != nil {
		if err := ValidateTimeOfDay(*p.Time); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return fmt.Errorf("%w: category cannot be empty", ErrValidation)
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLen)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Description == nil &&
		p.Date == nil && p.Time == nil && p.PaymentMethod == nil && p.TransactionID == nil
}
