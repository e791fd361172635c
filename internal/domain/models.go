package domain

import "time"

// Identity is the natural lookup key for a participant. All four fields are
// compared exactly, without normalization.
type Identity struct {
	Name      string
	ClassName string
	Mobile    string
	Email     string
}

// Valid reports whether every identity field is present.
func (i Identity) Valid() bool {
	return i.Name != "" && i.ClassName != "" && i.Mobile != "" && i.Email != ""
}

// Participant is a registered quiz-taker. Score and SubmittedAt stay nil until
// the first score submission.
type Participant struct {
	ID          int64
	Identity    Identity
	Score       *int
	SubmittedAt *time.Time
}

// Outcome tells whether identity resolution found or created a participant.
type Outcome string

const (
	OutcomeLogin    Outcome = "login"
	OutcomeRegister Outcome = "register"
)

// Resolution is the result of resolving an identity tuple.
type Resolution struct {
	ParticipantID int64
	Outcome       Outcome
}

// Question is a multiple choice item from the question bank. The correct
// option label is served to clients as-is.
type Question struct {
	ID            int64  `json:"id"`
	Category      string `json:"category"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

// NotificationOutcome records the best-effort certificate step that follows a
// committed score write.
type NotificationOutcome struct {
	Attempted bool
	Err       error
}

// Delivered reports whether the certificate email was sent.
func (n NotificationOutcome) Delivered() bool {
	return n.Attempted && n.Err == nil
}

// ScoreSubmission separates the durable write from the notification outcome.
// A ScoreSubmission is only returned once the score has been persisted.
type ScoreSubmission struct {
	Participant  Participant
	Notification NotificationOutcome
}

// ScoreEvent is published to live score subscribers after a score is saved.
type ScoreEvent struct {
	ParticipantID int64     `json:"student_id"`
	Name          string    `json:"name"`
	Score         int       `json:"score"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
