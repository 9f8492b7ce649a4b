package domain

import "time"

// QuestionID identifies a questionnaire question.
type QuestionID string

// Answer option values shared by the yes/no questions.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Questionnaire question identifiers. The six critical ones drive the verdict.
const (
	QuestionPermanentMove      QuestionID = "permanent_move"
	QuestionResidenceAbroad    QuestionID = "residence_abroad_12mo"
	QuestionOwnershipDuration  QuestionID = "ownership_6mo"
	QuestionRegisteredOwnName  QuestionID = "registered_own_name"
	QuestionEURegistration     QuestionID = "eu_registration"
	QuestionVATPaid            QuestionID = "vat_paid"
	QuestionVehicleType        QuestionID = "vehicle_type"
	QuestionCompanyVehicle     QuestionID = "is_company_vehicle"
	QuestionFinancing          QuestionID = "has_outstanding_financing"
	QuestionPreviousExemption  QuestionID = "had_previous_exemption"
	QuestionValidInspection    QuestionID = "has_valid_inspection"
	QuestionMovingArrangements QuestionID = "moving_with_household"
)

// Question is a single questionnaire entry with a closed option set.
type Question struct {
	ID       QuestionID `json:"id"`
	Text     string     `json:"text"`
	Options  []string   `json:"options"`
	Critical bool       `json:"critical"`
}

var yesNo = []string{AnswerYes, AnswerNo}

// questionnaire is the fixed ordered catalog presented to applicants.
var questionnaire = []Question{
	{ID: QuestionPermanentMove, Text: "Are you moving your normal residence permanently?", Options: yesNo, Critical: true},
	{ID: QuestionResidenceAbroad, Text: "Have you lived outside the destination country for at least 12 months?", Options: yesNo, Critical: true},
	{ID: QuestionOwnershipDuration, Text: "Have you owned and used the vehicle for at least 6 months?", Options: yesNo, Critical: true},
	{ID: QuestionRegisteredOwnName, Text: "Is the vehicle registered in your own name?", Options: yesNo, Critical: true},
	{ID: QuestionEURegistration, Text: "Was the vehicle registered in an EU member state?", Options: yesNo, Critical: true},
	{ID: QuestionVATPaid, Text: "Was VAT paid on the vehicle at purchase?", Options: yesNo, Critical: true},
	{ID: QuestionVehicleType, Text: "What kind of vehicle are you bringing?", Options: []string{"car", "motorcycle", "camper", "other"}},
	{ID: QuestionCompanyVehicle, Text: "Is the vehicle owned by a company?", Options: yesNo},
	{ID: QuestionFinancing, Text: "Is there outstanding financing on the vehicle?", Options: yesNo},
	{ID: QuestionPreviousExemption, Text: "Have you previously claimed a vehicle tax exemption?", Options: yesNo},
	{ID: QuestionValidInspection, Text: "Does the vehicle have a valid technical inspection?", Options: yesNo},
	{ID: QuestionMovingArrangements, Text: "Are you moving together with your household goods?", Options: yesNo},
}

// Questionnaire returns the ordered question catalog.
func Questionnaire() []Question {
	out := make([]Question, len(questionnaire))
	copy(out, questionnaire)
	return out
}

// QuestionByID looks up a catalog question.
func QuestionByID(id QuestionID) (Question, bool) {
	for _, q := range questionnaire {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// AnswerSet maps question ids to the chosen option value.
type AnswerSet map[QuestionID]string

// ValidateAnswers checks that every catalog question is answered with an
// allowed option and that no unknown ids are present. Returned keys are
// question ids, values describe the problem.
func ValidateAnswers(answers AnswerSet) map[string]string {
	problems := map[string]string{}
	for _, q := range questionnaire {
		value, ok := answers[q.ID]
		if !ok {
			problems[string(q.ID)] = "answer required"
			continue
		}
		if !contains(q.Options, value) {
			problems[string(q.ID)] = "value not in option set"
		}
	}
	for id := range answers {
		if _, ok := QuestionByID(id); !ok {
			problems[string(id)] = "unknown question"
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// EvaluateEligibility applies the exemption rule: every critical question
// must be answered "yes". Non-critical answers do not affect the verdict.
func EvaluateEligibility(answers AnswerSet) bool {
	for _, q := range questionnaire {
		if !q.Critical {
			continue
		}
		if answers[q.ID] != AnswerYes {
			return false
		}
	}
	return true
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

// EligibilityRecord is the persisted write-once answer set for a user.
type EligibilityRecord struct {
	ID         string
	UserID     string
	Answers    AnswerSet
	IsEligible bool
	CreatedAt  time.Time
}
