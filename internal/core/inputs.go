package core

import "time"

// Inputs accepted by the handlers. Create inputs build an entity with the
// store defaults filled in; update inputs patch an existing entity in place.

type (
	IDInput struct {
		ID int64 `json:"id"`
	}

	MemberIDInput struct {
		MemberID int64 `json:"member_id"`
	}

	ClassIDInput struct {
		ClassID int64 `json:"class_id"`
	}

	CreateMemberInput struct {
		FirstName             string  `json:"first_name"`
		LastName              string  `json:"last_name"`
		Email                 string  `json:"email"`
		Phone                 *string `json:"phone"`
		DateOfBirth           *Date   `json:"date_of_birth"`
		EmergencyContactName  *string `json:"emergency_contact_name"`
		EmergencyContactPhone *string `json:"emergency_contact_phone"`
		MedicalConditions     *string `json:"medical_conditions"`
	}

	UpdateMemberInput struct {
		ID                    int64             `json:"id"`
		FirstName             Optional[string]  `json:"first_name"`
		LastName              Optional[string]  `json:"last_name"`
		Email                 Optional[string]  `json:"email"`
		Phone                 Optional[*string] `json:"phone"`
		DateOfBirth           Optional[*Date]   `json:"date_of_birth"`
		EmergencyContactName  Optional[*string] `json:"emergency_contact_name"`
		EmergencyContactPhone Optional[*string] `json:"emergency_contact_phone"`
		MedicalConditions     Optional[*string] `json:"medical_conditions"`
	}

	CreateMemberProgressInput struct {
		MemberID          int64    `json:"member_id"`
		Weight            *Measure `json:"weight"`
		BodyFatPercentage *Measure `json:"body_fat_percentage"`
		MuscleMass        *Measure `json:"muscle_mass"`
		Notes             *string  `json:"notes"`
		RecordedDate      *Date    `json:"recorded_date"`
	}

	CreateTrainerInput struct {
		FirstName      string  `json:"first_name"`
		LastName       string  `json:"last_name"`
		Email          string  `json:"email"`
		Phone          *string `json:"phone"`
		Specialization *string `json:"specialization"`
		HourlyRate     *Money  `json:"hourly_rate"`
	}

	UpdateTrainerInput struct {
		ID             int64             `json:"id"`
		FirstName      Optional[string]  `json:"first_name"`
		LastName       Optional[string]  `json:"last_name"`
		Email          Optional[string]  `json:"email"`
		Phone          Optional[*string] `json:"phone"`
		Specialization Optional[*string] `json:"specialization"`
		HourlyRate     Optional[*Money]  `json:"hourly_rate"`
		IsActive       Optional[bool]    `json:"is_active"`
	}

	CreateMembershipTypeInput struct {
		Name           string  `json:"name"`
		Description    *string `json:"description"`
		DurationMonths int     `json:"duration_months"`
		Price          Money   `json:"price"`
	}

	UpdateMembershipTypeInput struct {
		ID             int64             `json:"id"`
		Name           Optional[string]  `json:"name"`
		Description    Optional[*string] `json:"description"`
		DurationMonths Optional[int]     `json:"duration_months"`
		Price          Optional[Money]   `json:"price"`
		IsActive       Optional[bool]    `json:"is_active"`
	}

	CreateMembershipInput struct {
		MemberID         int64 `json:"member_id"`
		MembershipTypeID int64 `json:"membership_type_id"`
		StartDate        *Date `json:"start_date"`
	}

	CreateClassInput struct {
		Name            string  `json:"name"`
		Description     *string `json:"description"`
		TrainerID       int64   `json:"trainer_id"`
		MaxCapacity     int     `json:"max_capacity"`
		DurationMinutes int     `json:"duration_minutes"`
		ClassDate       Date    `json:"class_date"`
		StartTime       string  `json:"start_time"`
	}

	UpdateClassInput struct {
		ID              int64             `json:"id"`
		Name            Optional[string]  `json:"name"`
		Description     Optional[*string] `json:"description"`
		TrainerID       Optional[int64]   `json:"trainer_id"`
		MaxCapacity     Optional[int]     `json:"max_capacity"`
		DurationMinutes Optional[int]     `json:"duration_minutes"`
		ClassDate       Optional[Date]    `json:"class_date"`
		StartTime       Optional[string]  `json:"start_time"`
		IsCancelled     Optional[bool]    `json:"is_cancelled"`
	}

	CreateClassAttendanceInput struct {
		ClassID     int64      `json:"class_id"`
		MemberID    int64      `json:"member_id"`
		Attended    bool       `json:"attended"`
		CheckInTime *time.Time `json:"check_in_time"`
	}

	UpdateClassAttendanceInput struct {
		ID          int64      `json:"id"`
		Attended    bool       `json:"attended"`
		CheckInTime *time.Time `json:"check_in_time"`
	}

	CreatePaymentInput struct {
		MemberID      int64         `json:"member_id"`
		MembershipID  *int64        `json:"membership_id"`
		Amount        Money         `json:"amount"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		PaymentDate   *Date         `json:"payment_date"`
		Description   *string       `json:"description"`
		Status        PaymentStatus `json:"status"`
	}

	RevenueReportInput struct {
		PeriodStart Date `json:"period_start"`
		PeriodEnd   Date `json:"period_end"`
	}
)

func (in CreateMemberInput) Member(today Date) Member {
	return Member{
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		Email:                 in.Email,
		Phone:                 in.Phone,
		DateOfBirth:           in.DateOfBirth,
		JoinDate:              today,
		EmergencyContactName:  in.EmergencyContactName,
		EmergencyContactPhone: in.EmergencyContactPhone,
		MedicalConditions:     in.MedicalConditions,
	}
}

func (in UpdateMemberInput) ApplyTo(m *Member) {
	in.FirstName.ApplyTo(&m.FirstName)
	in.LastName.ApplyTo(&m.LastName)
	in.Email.ApplyTo(&m.Email)
	in.Phone.ApplyTo(&m.Phone)
	in.DateOfBirth.ApplyTo(&m.DateOfBirth)
	in.EmergencyContactName.ApplyTo(&m.EmergencyContactName)
	in.EmergencyContactPhone.ApplyTo(&m.EmergencyContactPhone)
	in.MedicalConditions.ApplyTo(&m.MedicalConditions)
}

func (in CreateMemberProgressInput) MemberProgress(today Date) MemberProgress {
	recorded := today
	if in.RecordedDate != nil {
		recorded = *in.RecordedDate
	}
	return MemberProgress{
		MemberID:          in.MemberID,
		Weight:            in.Weight,
		BodyFatPercentage: in.BodyFatPercentage,
		MuscleMass:        in.MuscleMass,
		Notes:             in.Notes,
		RecordedDate:      recorded,
	}
}

func (in CreateTrainerInput) Trainer(today Date) Trainer {
	return Trainer{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Specialization: in.Specialization,
		HourlyRate:     in.HourlyRate,
		HireDate:       today,
		IsActive:       true,
	}
}

func (in UpdateTrainerInput) ApplyTo(t *Trainer) {
	in.FirstName.ApplyTo(&t.FirstName)
	in.LastName.ApplyTo(&t.LastName)
	in.Email.ApplyTo(&t.Email)
	in.Phone.ApplyTo(&t.Phone)
	in.Specialization.ApplyTo(&t.Specialization)
	in.HourlyRate.ApplyTo(&t.HourlyRate)
	in.IsActive.ApplyTo(&t.IsActive)
}

func (in CreateMembershipTypeInput) MembershipType() MembershipType {
	return MembershipType{
		Name:           in.Name,
		Description:    in.Description,
		DurationMonths: in.DurationMonths,
		Price:          in.Price,
		IsActive:       true,
	}
}

func (in UpdateMembershipTypeInput) ApplyTo(mt *MembershipType) {
	in.Name.ApplyTo(&mt.Name)
	in.Description.ApplyTo(&mt.Description)
	in.DurationMonths.ApplyTo(&mt.DurationMonths)
	in.Price.ApplyTo(&mt.Price)
	in.IsActive.ApplyTo(&mt.IsActive)
}

// Membership starts on the requested date (today when absent) and runs for
// the plan's duration.
func (in CreateMembershipInput) Membership(today Date, plan MembershipType) Membership {
	start := today
	if in.StartDate != nil {
		start = *in.StartDate
	}
	return Membership{
		MemberID:         in.MemberID,
		MembershipTypeID: in.MembershipTypeID,
		StartDate:        start,
		EndDate:          start.AddMonths(plan.DurationMonths),
		Status:           MembershipActive,
	}
}

func (in CreateClassInput) Class() Class {
	return Class{
		Name:            in.Name,
		Description:     in.Description,
		TrainerID:       in.TrainerID,
		MaxCapacity:     in.MaxCapacity,
		DurationMinutes: in.DurationMinutes,
		ClassDate:       in.ClassDate,
		StartTime:       in.StartTime,
	}
}

func (in UpdateClassInput) ApplyTo(c *Class) {
	in.Name.ApplyTo(&c.Name)
	in.Description.ApplyTo(&c.Description)
	in.TrainerID.ApplyTo(&c.TrainerID)
	in.MaxCapacity.ApplyTo(&c.MaxCapacity)
	in.DurationMinutes.ApplyTo(&c.DurationMinutes)
	in.ClassDate.ApplyTo(&c.ClassDate)
	in.StartTime.ApplyTo(&c.StartTime)
	in.IsCancelled.ApplyTo(&c.IsCancelled)
}

func (in CreateClassAttendanceInput) ClassAttendance() ClassAttendance {
	return ClassAttendance{
		ClassID:     in.ClassID,
		MemberID:    in.MemberID,
		Attended:    in.Attended,
		CheckInTime: utcPtr(in.CheckInTime),
	}
}

func (in UpdateClassAttendanceInput) ApplyTo(a *ClassAttendance) {
	a.Attended = in.Attended
	a.CheckInTime = utcPtr(in.CheckInTime)
}

func (in CreatePaymentInput) Payment(today Date) Payment {
	p := Payment{
		MemberID:      in.MemberID,
		MembershipID:  in.MembershipID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		PaymentDate:   today,
		Description:   in.Description,
		Status:        in.Status,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}
	if p.Status == "" {
		p.Status = PaymentCompleted
	}
	return p
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
