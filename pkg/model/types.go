package model

// IssueType is the severity the auditor assigns to an issue.
type IssueType string

const (
	IssueCritical IssueType = "Critical"
	IssueWarning  IssueType = "Warning"
	IssueInfo     IssueType = "Info"
)

// Category groups issues by what kind of problem they describe.
type Category string

const (
	CategoryAccuracy Category = "Accuracy"
	CategoryGrammar  Category = "Grammar"
	CategorySafety   Category = "Safety"
	CategoryStyle    Category = "Style"
)

// IssueStatus is the lifecycle state of an issue within a report.
type IssueStatus string

const (
	StatusPending IssueStatus = "pending"
	StatusFixed   IssueStatus = "fixed"
	StatusIgnored IssueStatus = "ignored"
)

// LanguageCode is a BCP 47 tag for a supported target locale.
type LanguageCode string

// Tone is the marketing register requested for a translation.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneCasual       Tone = "Casual"
	TonePromotional  Tone = "Promotional"
	ToneSocialMedia  Tone = "Social Media"
)

// Mode selects which surface a session presents.
type Mode string

const (
	ModeTranslate Mode = "translate"
	ModeAudit     Mode = "audit"
)
