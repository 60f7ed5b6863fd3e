package models

// Channel identifies a communication channel used for stage notifications.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// StageChangePlan describes a pending transition before confirmation: which
// path it takes, whether a notification is proposed and the pre-rendered
// message bodies. The plan is ephemeral; confirming or cancelling discards it.
type StageChangePlan struct {
	CandidateID       string  `json:"candidate_id"`
	TargetStageID     string  `json:"target_stage_id"`
	TargetStageTitle  string  `json:"target_stage_title"`
	RequiresInterview bool    `json:"requires_interview"`
	SendNotification  bool    `json:"send_notification"`
	DefaultChannel    Channel `json:"default_channel,omitempty"`
	EmailBody         string  `json:"email_body,omitempty"`
	WhatsAppBody      string  `json:"whatsapp_body,omitempty"`
	Warning           string  `json:"warning,omitempty"`
}

// StageChangeRequest confirms a transition with the data the chosen path needs.
type StageChangeRequest struct {
	TargetStageID    string    `json:"target_stage_id" validate:"required"`
	InterviewDate    *string   `json:"interview_date,omitempty"`
	InterviewTime    *string   `json:"interview_time,omitempty"`
	InterviewerID    *string   `json:"interviewer_id,omitempty"`
	SendNotification bool      `json:"send_notification"`
	Channels         []Channel `json:"channels,omitempty"`
}

// DispatchResult reports the outcome of one channel's compose-link build.
// A failed channel never blocks the sibling channel or the persistence.
type DispatchResult struct {
	Channel Channel `json:"channel"`
	URI     string  `json:"uri,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// StageChangeResult is returned after a confirmed transition.
type StageChangeResult struct {
	Candidate *Candidate       `json:"candidate"`
	Changed   bool             `json:"changed"`
	Dispatch  []DispatchResult `json:"dispatch,omitempty"`
}
