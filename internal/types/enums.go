package types

// RespondentType describes who submitted a design.
type RespondentType string

const (
	RespondentResident RespondentType = "RESIDENT"
	RespondentBusiness RespondentType = "BUSINESS"
	RespondentVisitor  RespondentType = "VISITOR"
	RespondentUnknown  RespondentType = "UNKNOWN"
)

// AgeGroup buckets the respondent's age.
type AgeGroup string

const (
	AgeUnder18 AgeGroup = "UNDER_18"
	Age18To34  AgeGroup = "AGE_18_34"
	Age35To54  AgeGroup = "AGE_35_54"
	Age55To74  AgeGroup = "AGE_55_74"
	Age75Plus  AgeGroup = "AGE_75_PLUS"
	AgeUnknown AgeGroup = "UNKNOWN"
)

// ZoneType classifies an area of the street layout.
type ZoneType string

const (
	ZoneParking ZoneType = "PARKING"
	ZoneGreen   ZoneType = "GREEN"
	ZoneOther   ZoneType = "OTHER"
)
