package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	ScopePersonal Scope = "personal"
	ScopeCouple   Scope = "couple"

	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"

	BudgetCategory     BudgetType = "category"
	BudgetMonthlyTotal BudgetType = "monthly_total"

	AssetNISA         AssetType = "nisa"
	AssetStock        AssetType = "stock"
	AssetFixedDeposit AssetType = "fixed_deposit"
	AssetCrypto       AssetType = "crypto"
	AssetBond         AssetType = "bond"
	AssetInsurance    AssetType = "insurance"
	AssetOther        AssetType = "other"
)

const (
	maxDescriptionLen = 500
	maxNameLen        = 100
)

type (
	Kind       string
	Scope      string
	Frequency  string
	BudgetType string
	AssetType  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           string
		Email        string
		DisplayName  string
		PasswordHash string
		CreatedAt    time.Time
	}

	Couple struct {
		ID        string
		User1ID   string
		User2ID   string
		CreatedAt time.Time
	}

	InviteCode struct {
		Code      string
		UserID    string
		ExpiresAt time.Time
		Used      bool
		UsedBy    string
		CreatedAt time.Time
	}

	// Transaction is one ledger row. OriginalAmount, PaidByUserID and
	// SplitGroupID are only meaningful when IsSplit is set; a zero
	// OriginalAmount means the value was never recorded.
	Transaction struct {
		ID             string
		UserID         string
		CoupleID       string // empty for personal rows
		Kind           Kind
		Category       string
		Amount         Money
		Date           Date
		Description    string
		IsSplit        bool
		OriginalAmount Money
		PaidByUserID   string
		SplitGroupID   string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	RecurringTemplate struct {
		ID            string
		UserID        string
		Kind          Kind
		Category      string
		Amount        Money
		Description   string
		Frequency     Frequency
		DayOfMonth    *int // 1-31
		DayOfWeek     *int // 0-6, Monday=0
		IsSplit       bool
		IsActive      bool
		LastCreatedAt time.Time
		NextDueDate   Date
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Budget struct {
		ID        string
		Scope     Scope
		Type      BudgetType
		Category  string // only for BudgetCategory
		Amount    Money
		Year      int
		Month     int
		IsActive  bool
		UserID    string
		CoupleID  string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Asset struct {
		ID          string
		UserID      string
		Name        string
		Type        AssetType
		Amount      Money
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	NotificationLog struct {
		ID        string
		UserID    string
		Type      string
		Title     string
		Body      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidScope       = errors.New("invalid scope")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidBudgetType  = errors.New("invalid budget type")
	ErrInvalidAssetType   = errors.New("invalid asset type")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidOwner       = errors.New("exactly one of user or couple must be set")

	ErrNotInCouple       = errors.New("user is not in a couple")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrNotFound          = errors.New("not found")
	ErrInconsistentState = errors.New("inconsistent state")
	ErrConflict          = errors.New("conflict")
)

var validationErrors = []error{
	ErrInvalidDate, ErrInvalidDay, ErrInvalidMonth, ErrInvalidYear, ErrInvalidAmount, ErrInvalidKind,
	ErrInvalidScope, ErrInvalidFrequency, ErrInvalidBudgetType, ErrInvalidAssetType,
	ErrDescriptionTooLong, ErrEmptyName, ErrNameTooLong, ErrEmptyCategory, ErrInvalidOwner,
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
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

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	return DateOf(t), nil
}

// DaysIn returns the number of days of the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a month.
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysIn(year, month))
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (s Scope) Validate() error {
	switch s {
	case ScopePersonal, ScopeCouple:
		return nil
	}
	return ErrInvalidScope
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Weekly, Yearly:
		return nil
	}
	return ErrInvalidFrequency
}

func (t BudgetType) Validate() error {
	switch t {
	case BudgetCategory, BudgetMonthlyTotal:
		return nil
	}
	return ErrInvalidBudgetType
}

// AssetTypes lists the accepted asset types in display order.
var AssetTypes = []AssetType{
	AssetNISA, AssetStock, AssetFixedDeposit, AssetCrypto, AssetBond, AssetInsurance, AssetOther,
}

func (t AssetType) Validate() error {
	for _, v := range AssetTypes {
		if t == v {
			return nil
		}
	}
	return ErrInvalidAssetType
}

// Has reports whether userID is one of the two members.
func (c Couple) Has(userID string) bool {
	return userID != "" && (c.User1ID == userID || c.User2ID == userID)
}

// Usable checks that the code can still be redeemed at now.
func (ic InviteCode) Usable(now time.Time) error {
	if ic.Used {
		return fmt.Errorf("invite code already used: %w", ErrNotFound)
	}
	if !now.Before(ic.ExpiresAt) {
		return fmt.Errorf("invite code expired: %w", ErrNotFound)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Original returns the pre-split total of a split row, reconstructing it
// from the share when it was never stored.
func (t Transaction) Original() Money {
	if t.OriginalAmount.Cents > 0 {
		return t.OriginalAmount
	}
	return Money{Cents: t.Amount.Cents * 2}
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if rt.DayOfMonth != nil && (*rt.DayOfMonth < 1 || *rt.DayOfMonth > 31) {
		return ErrInvalidDay
	}
	if rt.DayOfWeek != nil && (*rt.DayOfWeek < 0 || *rt.DayOfWeek > 6) {
		return ErrInvalidDay
	}
	if len(rt.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if rt.IsSplit && rt.Kind != Expense {
		return fmt.Errorf("only expenses can be split: %w", ErrInvalidOperation)
	}
	if rt.IsSplit && rt.Amount.Cents < MinSplitCents {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Scope.Validate(); err != nil {
		return err
	}
	if err := b.Type.Validate(); err != nil {
		return err
	}
	if b.Type == BudgetCategory && strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Year < 2000 || b.Year > 2100 {
		return ErrInvalidYear
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	hasUser, hasCouple := b.UserID != "", b.CoupleID != ""
	if hasUser == hasCouple {
		return ErrInvalidOwner
	}
	if (b.Scope == ScopeCouple) != hasCouple {
		return ErrInvalidOwner
	}
	return nil
}

func (a Asset) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if len(a.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}
