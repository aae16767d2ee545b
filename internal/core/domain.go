package core

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodOnline       PaymentMethod = "online"
)

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// PaymentMethods lists every accepted payment channel in report order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodBankTransfer, MethodOnline}

type (
	PaymentMethod    string
	PaymentStatus    string
	MembershipStatus string

	Member struct {
		ID                    int64     `json:"id"`
		FirstName             string    `json:"first_name"`
		LastName              string    `json:"last_name"`
		Email                 string    `json:"email"`
		Phone                 *string   `json:"phone"`
		DateOfBirth           *Date     `json:"date_of_birth"`
		JoinDate              Date      `json:"join_date"`
		EmergencyContactName  *string   `json:"emergency_contact_name"`
		EmergencyContactPhone *string   `json:"emergency_contact_phone"`
		MedicalConditions     *string   `json:"medical_conditions"`
		CreatedAt             time.Time `json:"created_at"`
	}

	MemberProgress struct {
		ID                int64     `json:"id"`
		MemberID          int64     `json:"member_id"`
		Weight            *Measure  `json:"weight"`
		BodyFatPercentage *Measure  `json:"body_fat_percentage"`
		MuscleMass        *Measure  `json:"muscle_mass"`
		Notes             *string   `json:"notes"`
		RecordedDate      Date      `json:"recorded_date"`
		CreatedAt         time.Time `json:"created_at"`
	}

	Trainer struct {
		ID             int64     `json:"id"`
		FirstName      string    `json:"first_name"`
		LastName       string    `json:"last_name"`
		Email          string    `json:"email"`
		Phone          *string   `json:"phone"`
		Specialization *string   `json:"specialization"`
		HourlyRate     *Money    `json:"hourly_rate"`
		HireDate       Date      `json:"hire_date"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
	}

	MembershipType struct {
		ID             int64     `json:"id"`
		Name           string    `json:"name"`
		Description    *string   `json:"description"`
		DurationMonths int       `json:"duration_months"`
		Price          Money     `json:"price"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
	}

	Membership struct {
		ID               int64            `json:"id"`
		MemberID         int64            `json:"member_id"`
		MembershipTypeID int64            `json:"membership_type_id"`
		StartDate        Date             `json:"start_date"`
		EndDate          Date             `json:"end_date"`
		Status           MembershipStatus `json:"status"`
		CreatedAt        time.Time        `json:"created_at"`
	}

	Class struct {
		ID              int64     `json:"id"`
		Name            string    `json:"name"`
		Description     *string   `json:"description"`
		TrainerID       int64     `json:"trainer_id"`
		MaxCapacity     int       `json:"max_capacity"`
		DurationMinutes int       `json:"duration_minutes"`
		ClassDate       Date      `json:"class_date"`
		StartTime       string    `json:"start_time"` // HH:MM
		IsCancelled     bool      `json:"is_cancelled"`
		CreatedAt       time.Time `json:"created_at"`
	}

	ClassAttendance struct {
		ID          int64      `json:"id"`
		ClassID     int64      `json:"class_id"`
		MemberID    int64      `json:"member_id"`
		Attended    bool       `json:"attended"`
		CheckInTime *time.Time `json:"check_in_time"`
		CreatedAt   time.Time  `json:"created_at"`
	}

	Payment struct {
		ID            int64         `json:"id"`
		MemberID      int64         `json:"member_id"`
		MembershipID  *int64        `json:"membership_id"`
		Amount        Money         `json:"amount"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		PaymentDate   Date          `json:"payment_date"`
		Description   *string       `json:"description"`
		Status        PaymentStatus `json:"status"`
		CreatedAt     time.Time     `json:"created_at"`
	}
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidMeasure   = fmt.Errorf("%w: invalid measurement", ErrInvalidInput)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrInvalidInput)
	ErrEmptyName        = fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	ErrInvalidStartTime = fmt.Errorf("%w: start_time must be HH:MM", ErrInvalidInput)
	ErrInvalidMethod    = fmt.Errorf("%w: unknown payment method", ErrInvalidInput)
	ErrInvalidStatus    = fmt.Errorf("%w: unknown status", ErrInvalidInput)
)

var startTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentCompleted, PaymentPending, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipActive, MembershipExpired, MembershipCancelled:
		return true
	}
	return false
}

func validatePersonName(first, last string) error {
	if strings.TrimSpace(first) == "" {
		return fmt.Errorf("%w (first_name)", ErrEmptyName)
	}
	if strings.TrimSpace(last) == "" {
		return fmt.Errorf("%w (last_name)", ErrEmptyName)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func (m Member) Validate() error {
	if err := validatePersonName(m.FirstName, m.LastName); err != nil {
		return err
	}
	if err := validateEmail(m.Email); err != nil {
		return err
	}
	return m.JoinDate.Validate()
}

func (p MemberProgress) Validate() error {
	if p.Weight != nil && !p.Weight.IsPositive() {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidMeasure)
	}
	if p.BodyFatPercentage != nil && (p.BodyFatPercentage.IsNegative() || p.BodyFatPercentage.GreaterThan(hundred)) {
		return fmt.Errorf("%w: body_fat_percentage must be between 0 and 100", ErrInvalidMeasure)
	}
	if p.MuscleMass != nil && !p.MuscleMass.IsPositive() {
		return fmt.Errorf("%w: muscle_mass must be positive", ErrInvalidMeasure)
	}
	return p.RecordedDate.Validate()
}

func (t Trainer) Validate() error {
	if err := validatePersonName(t.FirstName, t.LastName); err != nil {
		return err
	}
	if err := validateEmail(t.Email); err != nil {
		return err
	}
	if t.HourlyRate != nil {
		if err := t.HourlyRate.Validate(); err != nil {
			return fmt.Errorf("hourly_rate: %w", err)
		}
	}
	return t.HireDate.Validate()
}

func (mt MembershipType) Validate() error {
	if strings.TrimSpace(mt.Name) == "" {
		return ErrEmptyName
	}
	if mt.DurationMonths <= 0 {
		return Invalidf("duration_months must be positive, got %d", mt.DurationMonths)
	}
	if err := mt.Price.Validate(); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	return nil
}

func (m Membership) Validate() error {
	if err := m.StartDate.Validate(); err != nil {
		return err
	}
	if m.EndDate.Before(m.StartDate.Time) {
		return Invalidf("end_date %s is before start_date %s", m.EndDate, m.StartDate)
	}
	if !m.Status.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidStatus, m.Status)
	}
	return nil
}

func (c Class) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.MaxCapacity <= 0 {
		return Invalidf("max_capacity must be positive, got %d", c.MaxCapacity)
	}
	if c.DurationMinutes <= 0 {
		return Invalidf("duration_minutes must be positive, got %d", c.DurationMinutes)
	}
	if err := c.ClassDate.Validate(); err != nil {
		return err
	}
	if !startTimePattern.MatchString(c.StartTime) {
		return fmt.Errorf("%w, got %q", ErrInvalidStartTime, c.StartTime)
	}
	return nil
}

func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.PaymentMethod.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidMethod, p.PaymentMethod)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidStatus, p.Status)
	}
	return p.PaymentDate.Validate()
}
