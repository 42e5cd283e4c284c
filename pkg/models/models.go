package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/* =============================== Enums ================================== */

// VisaType is the kind of visa a case is pursuing.
type VisaType string

const (
	VisaTourist  VisaType = "tourist"
	VisaBusiness VisaType = "business"
	VisaStudent  VisaType = "student"
	VisaWork     VisaType = "work"
	VisaFamily   VisaType = "family"
	VisaOther    VisaType = "other"
)

var VisaTypes = []VisaType{VisaTourist, VisaBusiness, VisaStudent, VisaWork, VisaFamily, VisaOther}

func (v VisaType) Valid() bool {
	for _, t := range VisaTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CaseStatus defines lifecycle states for a case.
type CaseStatus string

const (
	CaseDraft       CaseStatus = "draft"
	CaseSubmitted   CaseStatus = "submitted"
	CaseUnderReview CaseStatus = "under_review"
	CaseProcessing  CaseStatus = "processing"
	CaseApproved    CaseStatus = "approved"
	CaseRejected    CaseStatus = "rejected"
	CaseCompleted   CaseStatus = "completed"
)

var CaseStatuses = []CaseStatus{
	CaseDraft, CaseSubmitted, CaseUnderReview, CaseProcessing, CaseApproved, CaseRejected, CaseCompleted,
}

func (s CaseStatus) Valid() bool {
	for _, v := range CaseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Priority is the urgency staff attach to a case.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

/* =============================== Entities =============================== */

// Case is one client's immigration matter.
type Case struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseNumber            string     `gorm:"uniqueIndex;not null" json:"case_number"`
	ClientID              uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	AssignedCoordinatorID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_coordinator_id"`
	AssignedManagerID     *uuid.UUID `gorm:"type:uuid;index" json:"assigned_manager_id"`
	VisaType              VisaType   `gorm:"type:varchar(20);not null" json:"visa_type"`
	Status                CaseStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Priority              Priority   `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`

	ApplicationDetails datatypes.JSONType[ApplicationDetails] `gorm:"type:jsonb" json:"application_details"`
	IntakeForm         datatypes.JSONType[IntakeForm]         `gorm:"type:jsonb" json:"intake_form"`
	Deadlines          Deadlines                              `gorm:"embedded;embeddedPrefix:deadline_" json:"deadlines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Documents []Document      `gorm:"foreignKey:CaseID" json:"documents"`
	Notes     []Note          `gorm:"foreignKey:CaseID" json:"notes"`
	Timeline  []TimelineEntry `gorm:"foreignKey:CaseID" json:"timeline"`
}

// Deadlines are optional target dates staff track per case.
type Deadlines struct {
	Submission *time.Time `json:"submission,omitempty"`
	Review     *time.Time `json:"review,omitempty"`
	Approval   *time.Time `json:"approval,omitempty"`
}

// Note is free text attached to a case. Never edited after it is appended.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelineEntry is an audit snapshot of the case status. Append-only.
type TimelineEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	Status    CaseStatus `gorm:"type:varchar(20);not null" json:"status"`
	UpdatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"updated_by"`
	Note      string     `gorm:"type:text" json:"note"`
	Timestamp time.Time  `gorm:"not null;index" json:"timestamp"`
}

/* ============================ Structured data =========================== */

type ApplicationDetails struct {
	DestinationCountry   string        `json:"destinationCountry,omitempty"`
	PurposeOfVisit       string        `json:"purposeOfVisit,omitempty"`
	IntendedDateOfEntry  *time.Time    `json:"intendedDateOfEntry,omitempty"`
	IntendedLengthOfStay int           `json:"intendedLengthOfStay,omitempty"`
	AccommodationDetails string        `json:"accommodationDetails,omitempty"`
	FinancialInfo        FinancialInfo `json:"financialInfo"`
}

type FinancialInfo struct {
	EmploymentStatus string  `json:"employmentStatus,omitempty"`
	MonthlyIncome    float64 `json:"monthlyIncome,omitempty"`
	Savings          float64 `json:"savings,omitempty"`
}

// IntakeForm is the questionnaire a client fills in. Keys follow the web form.
type IntakeForm struct {
	GeneralInformation  GeneralInformation  `json:"generalInformation"`
	ImmigrationHistory  ImmigrationHistory  `json:"immigrationHistory"`
	PassportInformation PassportInformation `json:"passportInformation"`
	EducationEmployment EducationEmployment `json:"educationEmployment"`
	Consultation        Consultation        `json:"consultation"`
	DocumentsProvided   *DocumentsProvided  `json:"documentsProvided,omitempty"`
	Acknowledgment      Acknowledgment      `json:"acknowledgment"`
}

type GeneralInformation struct {
	FullLegalName          string   `json:"fullLegalName"`
	OtherNames             string   `json:"otherNames,omitempty"`
	DateOfBirth            string   `json:"dateOfBirth,omitempty"`
	BirthCityCountry       string   `json:"birthCityCountry,omitempty"`
	CitizenshipCountries   []string `json:"citizenshipCountries"`
	Gender                 string   `json:"gender,omitempty"`
	MaritalStatus          string   `json:"maritalStatus,omitempty"`
	Address                Address  `json:"address"`
	PhoneMobile            string   `json:"phoneMobile,omitempty"`
	PhoneOther             string   `json:"phoneOther,omitempty"`
	Email                  string   `json:"email"`
	PreferredContactMethod string   `json:"preferredContactMethod,omitempty"`
}

type Address struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type ImmigrationHistory struct {
	BeenToUS          bool   `json:"beenToUS"`
	LastEntryDate     string `json:"lastEntryDate,omitempty"`
	LastEntryPlace    string `json:"lastEntryPlace,omitempty"`
	MannerOfLastEntry string `json:"mannerOfLastEntry,omitempty"`
	ClassOfAdmission  string `json:"classOfAdmission,omitempty"`
	I94Number         string `json:"i94Number,omitempty"`
	CurrentStatus     string `json:"currentStatus,omitempty"`
}

type PassportInformation struct {
	PassportCountry string `json:"passportCountry,omitempty"`
	PassportNumber  string `json:"passportNumber,omitempty"`
	IssuedDate      string `json:"issuedDate,omitempty"`
	ExpirationDate  string `json:"expirationDate,omitempty"`
	PlaceOfIssue    string `json:"placeOfIssue,omitempty"`
	AlienNumber     string `json:"alienNumber,omitempty"`
	SSN             string `json:"ssn,omitempty"`
}

type EducationEmployment struct {
	HighestEducation   string      `json:"highestEducation,omitempty"`
	EducationList      []Education `json:"educationList,omitempty"`
	CurrentEmployer    Employer    `json:"currentEmployer"`
	PreviousEmployment string      `json:"previousEmployment,omitempty"`
}

type Education struct {
	School      string `json:"school"`
	DegreeField string `json:"degreeField"`
	Country     string `json:"country"`
	YearsFrom   string `json:"yearsFrom"`
	YearsTo     string `json:"yearsTo"`
}

type Employer struct {
	CompanyName string `json:"companyName,omitempty"`
	Position    string `json:"position,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	Address     string `json:"address,omitempty"`
	WorkContact string `json:"workContact,omitempty"`
}

type Consultation struct {
	Purposes     []string `json:"purposes"`
	OtherPurpose string   `json:"otherPurpose,omitempty"`
	Description  string   `json:"description,omitempty"`
	HowHeard     string   `json:"howHeard,omitempty"`
}

// DocumentsProvided records which required documents the client said they can supply.
type DocumentsProvided struct {
	Passport          bool `json:"passport"`
	Visas             bool `json:"visas"`
	WorkPermits       bool `json:"workPermits"`
	Certificates      bool `json:"certificates"`
	PriorApplications bool `json:"priorApplications"`
	TaxFinancials     bool `json:"taxFinancials"`
}

// CanProvide reports the declared flag for t. covered is false for types the
// checklist does not ask about.
func (d DocumentsProvided) CanProvide(t DocumentType) (provided, covered bool) {
	switch t {
	case DocPassport:
		return d.Passport, true
	case DocVisas:
		return d.Visas, true
	case DocWorkPermits:
		return d.WorkPermits, true
	case DocCertificates:
		return d.Certificates, true
	case DocPriorApplications:
		return d.PriorApplications, true
	case DocTaxFinancials:
		return d.TaxFinancials, true
	}
	return false, false
}

type Acknowledgment struct {
	Agreed bool `json:"agreed"`
}
