package api

import "encoding/json"

type (
	// AddScreenRequest contains parameters for creating a screen
	AddScreenRequest struct {
		From       *ScreenID  `json:"from,omitempty"`
		To         *ScreenID  `json:"to,omitempty"`
		Title      string     `json:"title,omitempty"`
		ScreenType ScreenType `json:"screenType,omitempty"`
		SkipWiring bool       `json:"skipWiring,omitempty"`
	}

	// ScreenResponse is returned when a screen is created or fetched
	ScreenResponse struct {
		Screen *Screen `json:"screen"`
	}

	// ScreenDeletedResponse lists the screens rewritten by a delete
	ScreenDeletedResponse struct {
		Rewired  []ScreenID `json:"rewired"`
		ScreenID ScreenID   `json:"screen_id"`
	}

	// PathsResponse contains a screen's outbound paths
	PathsResponse struct {
		Paths Paths `json:"paths"`
		Count int   `json:"count"`
	}

	// InboundPath is a path that reaches a screen, paired with its source
	InboundPath struct {
		Path           Path     `json:"path"`
		SourceScreenID ScreenID `json:"sourceScreenId"`
	}

	// InboundPathsResponse contains every path that reaches a screen
	InboundPathsResponse struct {
		Paths []InboundPath `json:"paths"`
		Count int           `json:"count"`
	}

	// DefaultDestinationResponse names a screen's fallback target
	DefaultDestinationResponse struct {
		Destination *ScreenID `json:"destination"`
	}

	// PathOptionsResponse lists the path kinds available for a screen
	PathOptionsResponse struct {
		QuestionType string `json:"questionType"`
		Paths        Paths  `json:"paths"`
	}

	// PreviewRequest supplies the runtime facts a rule preview runs against
	PreviewRequest struct {
		Facts map[string]any `json:"facts"`
	}

	// PreviewResponse names the rule that fires for the supplied facts
	PreviewResponse struct {
		Rule    *Rule `json:"rule,omitempty"`
		Matched bool  `json:"matched"`
	}

	// VerifyReport lists the repairs made by one verifier run
	VerifyReport struct {
		Changes []*VerifyChange `json:"changes"`
	}

	// VerifyChange is one repair made by a verifier pass
	VerifyChange struct {
		ScreenID *ScreenID `json:"screenId,omitempty"`
		Pass     string    `json:"pass"`
		Message  string    `json:"message"`
	}

	ProblemType string

	// Problem is one validation finding with an optional suggested fix
	Problem struct {
		ScreenID     *ScreenID   `json:"screenId,omitempty"`
		Type         ProblemType `json:"type"`
		Owner        string      `json:"owner"`
		Item         string      `json:"item"`
		Message      string      `json:"message"`
		SuggestedFix string      `json:"suggestedFix,omitempty"`
	}

	// DiagnosticsResponse contains every problem found in a lesson
	DiagnosticsResponse struct {
		Problems []*Problem `json:"problems"`
		Count    int        `json:"count"`
	}

	// ArchiveResponse reports a lesson written to or restored from the
	// archive
	ArchiveResponse struct {
		LessonID LessonID `json:"lesson_id"`
		Screens  int      `json:"screens"`
	}

	// LessonsResponse lists the ids of stored lessons
	LessonsResponse struct {
		Lessons []LessonID `json:"lessons"`
		Count   int        `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Error   string `json:"error,omitempty"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

const (
	ProblemDuplicate     ProblemType = "duplicate"
	ProblemPattern       ProblemType = "pattern"
	ProblemBroken        ProblemType = "broken"
	ProblemInvalidMutate ProblemType = "invalid_target_mutate"
	ProblemInvalidInit   ProblemType = "invalid_target_init"
	ProblemInvalidCond   ProblemType = "invalid_target_condition"
	ProblemInvalidValue  ProblemType = "invalid_value"
	ProblemBrokenExpr    ProblemType = "broken_expression"
	ProblemDangling      ProblemType = "dangling_destination"
	ProblemInvalidPath   ProblemType = "invalid_path"
	ProblemPathSet       ProblemType = "path_set"
	ProblemUnreachable   ProblemType = "unreachable"
)

// Changed reports whether the verifier made any repair
func (r *VerifyReport) Changed() bool {
	return r != nil && len(r.Changes) > 0
}

// Add records one repair
func (r *VerifyReport) Add(pass, msg string, id *ScreenID) {
	r.Changes = append(r.Changes, &VerifyChange{
		Pass:     pass,
		Message:  msg,
		ScreenID: id,
	})
}

// UnmarshalJSON decodes the path through its type field
func (p *InboundPath) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path           json.RawMessage `json:"path"`
		SourceScreenID ScreenID        `json:"sourceScreenId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	path, err := DecodePath(raw.Path)
	if err != nil {
		return err
	}
	p.Path = path
	p.SourceScreenID = raw.SourceScreenID
	return nil
}
