package models

import "time"

// Base carries the identity and store-assigned timestamps of every record.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Base) GetID() string { return b.ID }

// Entity is implemented by every record type managed by an entity service.
type Entity interface {
	Kind() Kind
	GetID() string
}

type Prison struct {
	Base
	Name              string `json:"name"`
	Location          string `json:"location"`
	Capacity          int    `json:"capacity,omitempty"`
	CurrentPopulation int    `json:"currentPopulation,omitempty"`
	Status            string `json:"status,omitempty"`
	Description       string `json:"description,omitempty"`
}

func (Prison) Kind() Kind { return KindPrison }

type Inmate struct {
	Base
	FirstName           string       `json:"firstName"`
	MiddleName          string       `json:"middleName,omitempty"`
	LastName            string       `json:"lastName"`
	Gender              string       `json:"gender"`
	BirthDate           string       `json:"birthDate,omitempty"`
	Nationality         string       `json:"nationality,omitempty"`
	CaseType            string       `json:"caseType"`
	Sentence            string       `json:"sentence,omitempty"`
	SentenceStart       string       `json:"sentenceStart,omitempty"`
	SentenceEnd         string       `json:"sentenceEnd,omitempty"`
	PrisonName          string       `json:"prisonName,omitempty"`
	PhotoKey            string       `json:"photoKey,omitempty"`
	ContactName         string       `json:"contactName,omitempty"`
	ContactPhone        string       `json:"contactPhone,omitempty"`
	ContactRelationship Relationship `json:"contactRelationship,omitempty"`
	Status              string       `json:"status,omitempty"`
}

func (Inmate) Kind() Kind { return KindInmate }

type WoredaInmate struct {
	Base
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Gender     string `json:"gender,omitempty"`
	CrimeType  string `json:"crimeType"`
	Woreda     string `json:"woreda"`
	IntakeDate string `json:"intakeDate,omitempty"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (WoredaInmate) Kind() Kind { return KindWoredaInmate }

type Notice struct {
	Base
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       Priority `json:"priority,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	IsPosted       bool     `json:"isPosted"`
	PostedBy       string   `json:"postedBy,omitempty"`
	AttachmentKey  string   `json:"attachmentKey,omitempty"`
}

func (Notice) Kind() Kind { return KindNotice }

type Clearance struct {
	Base
	ClearanceID string `json:"clearanceId"`
	InmateID    string `json:"inmateId"`
	InmateName  string `json:"inmateName,omitempty"`
	Reason      string `json:"reason"`
	Status      string `json:"status,omitempty"`
	IssuedBy    string `json:"issuedBy,omitempty"`
	Date        string `json:"date,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

func (Clearance) Kind() Kind { return KindClearance }

type Visitor struct {
	Base
	FirstName    string        `json:"firstName"`
	MiddleName   string        `json:"middleName,omitempty"`
	LastName     string        `json:"lastName"`
	Phone        string        `json:"phone"`
	IDNumber     string        `json:"idNumber,omitempty"`
	InmateID     string        `json:"inmateId"`
	InmateName   string        `json:"inmateName,omitempty"`
	Relationship Relationship  `json:"relationship,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	VisitDate    string        `json:"visitDate,omitempty"`
	Status       VisitorStatus `json:"status,omitempty"`
	RegisteredBy string        `json:"registeredBy,omitempty"`
}

func (Visitor) Kind() Kind { return KindVisitor }

type Report struct {
	Base
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	ReportedBy  string `json:"reportedBy,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (Report) Kind() Kind { return KindReport }

type Transfer struct {
	Base
	InmateID     string `json:"inmateId"`
	InmateName   string `json:"inmateName,omitempty"`
	FromPrison   string `json:"fromPrison"`
	ToPrison     string `json:"toPrison"`
	Reason       string `json:"reason"`
	TransferDate string `json:"transferDate,omitempty"`
	Status       string `json:"status,omitempty"`
	RequestedBy  string `json:"requestedBy,omitempty"`
}

func (Transfer) Kind() Kind { return KindTransfer }

type Incident struct {
	Base
	InmateID     string   `json:"inmateId"`
	InmateName   string   `json:"inmateName,omitempty"`
	IncidentType string   `json:"incidentType"`
	Description  string   `json:"description"`
	Location     string   `json:"location,omitempty"`
	IncidentDate string   `json:"incidentDate,omitempty"`
	ReportedBy   string   `json:"reportedBy,omitempty"`
	Status       string   `json:"status,omitempty"`
	Severity     Severity `json:"severity"`
	RepeatCount  int      `json:"repeatCount"`
	IsRepeat     bool     `json:"isRepeat"`
}

func (Incident) Kind() Kind { return KindIncident }

// User is a staff account. PasswordHash is never rendered over HTTP.
type User struct {
	Base
	Username     string `json:"username"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`
	Prison       string `json:"prison,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

func (User) Kind() Kind { return KindUser }

// DisplayName is "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
