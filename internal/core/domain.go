package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"eixo/internal/persona"
)

const (
	Income  TransactionType = "receita"
	Expense TransactionType = "despesa"

	VerdictYes Verdict = "sim"
	VerdictNo  Verdict = "nao"
)

const (
	DefaultCategoryColor = "#10B981"
	DefaultCategoryIcon  = "📦"

	maxDescriptionLen = 200
	maxNameLen        = 60
	maxLabelLen       = 20
)

type (
	TransactionType string

	Verdict string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           string          `json:"id"`
		Email        string          `json:"email"`
		Name         string          `json:"name"`
		PasswordHash string          `json:"-"`
		Persona      persona.Persona `json:"persona"`
		Premium      bool            `json:"premium"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"-"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  string          `json:"category_id,omitempty"` // empty for records created before categories carried ids
		Category    string          `json:"category"`              // name at creation time, used for display and export
		Date        Date            `json:"date"`
		Installment bool            `json:"installment"`
		// InstallmentLabel is free text such as "3x" or "2/10".
		InstallmentLabel string    `json:"installment_label,omitempty"`
		CreatedAt        time.Time `json:"created_at"`
	}

	Category struct {
		ID     string `json:"id"`
		UserID string `json:"-"`
		Name   string `json:"name"`
		Color  string `json:"color"`
		Icon   string `json:"icon"`
		Budget Money  `json:"budget"` // monthly
	}

	Goal struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"`
		Name      string    `json:"name"`
		Target    Money     `json:"target"`
		Saved     Money     `json:"saved"`
		Deadline  Date      `json:"deadline"`
		CreatedAt time.Time `json:"created_at"`
	}

	AffordabilityQuery struct {
		ID          string    `json:"id"`
		UserID      string    `json:"-"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Verdict     Verdict   `json:"verdict"`
		Explanation string    `json:"explanation"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 60 characters)")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidLabel       = errors.New("invalid installment label")
	ErrInvalidDeadline    = errors.New("invalid deadline")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password too short")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// DefaultCategories are seeded for every new account.
var DefaultCategories = []Category{
	{Name: "Alimentação", Color: "#10B981", Icon: "🍔", Budget: Money{Cents: 80000}},
	{Name: "Transporte", Color: "#3B82F6", Icon: "🚗", Budget: Money{Cents: 40000}},
	{Name: "Lazer", Color: "#F59E0B", Icon: "🎮", Budget: Money{Cents: 30000}},
	{Name: "Saúde", Color: "#EF4444", Icon: "💊", Budget: Money{Cents: 20000}},
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time of day from t, keeping the calendar day as seen in
// t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Installment && (strings.TrimSpace(t.InstallmentLabel) == "" || utf8.RuneCountInString(t.InstallmentLabel) > maxLabelLen) {
		return ErrInvalidLabel
	}
	return nil
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	if strings.TrimSpace(c.Icon) == "" {
		return errors.New("empty icon")
	}
	return c.Budget.Validate()
}

// WithDefaults fills color and icon when the user left them blank.
func (c Category) WithDefaults() Category {
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultCategoryColor
	}
	if strings.TrimSpace(c.Icon) == "" {
		c.Icon = DefaultCategoryIcon
	}
	return c
}

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := g.Deadline.Validate(); err != nil {
		return ErrInvalidDeadline
	}
	return nil
}

// DisplayName is the user's name, or the capitalized local part of the email
// when no name was set.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(local)
	return strings.ToUpper(string(r)) + local[size:]
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ErrNameTooLong
	}
	return nil
}
