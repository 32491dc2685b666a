package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

type (
	// PathType discriminates the variants of the Path union
	PathType string

	// Path is a directed, conditioned edge leaving a screen. The set of
	// implementations is closed: only the variants declared in this package
	// satisfy it
	Path interface {
		Base() PathBase
		withBase(PathBase) Path
	}

	// DestinationPath is a Path that routes to another screen
	DestinationPath interface {
		Path
		Dest() *ScreenID
		withDest(*ScreenID) Path
	}

	// ComponentPath is a Path bound to an interactive part of the screen
	ComponentPath interface {
		Path
		Component() string
	}

	// PathBase holds the fields shared by every path variant
	PathBase struct {
		ID        string   `json:"id"`
		Type      PathType `json:"type"`
		Label     string   `json:"label"`
		Priority  int      `json:"priority"`
		Completed bool     `json:"completed"`
		RuleID    *string  `json:"ruleId"`
	}

	// Destination is embedded by every destination-bearing variant
	Destination struct {
		DestinationScreenID *ScreenID `json:"destinationScreenId"`
	}

	AlwaysGoToPath struct {
		PathBase
		Destination
	}

	ExitActivityPath struct {
		PathBase
	}

	EndOfActivityPath struct {
		PathBase
	}

	UnknownReasonPath struct {
		PathBase
		Destination
	}

	CorrectPath struct {
		PathBase
		Destination
		ComponentID string `json:"componentId"`
	}

	IncorrectPath struct {
		PathBase
		Destination
		ComponentID string `json:"componentId"`
	}

	// OptionSpecificPath routes on one selected option (1-based)
	OptionSpecificPath struct {
		PathBase
		Destination
		ComponentID    string `json:"componentId"`
		SelectedOption int    `json:"selectedOption"`
	}

	// OptionCommonErrorPath routes on one wrong option (1-based)
	OptionCommonErrorPath struct {
		PathBase
		Destination
		ComponentID    string `json:"componentId"`
		SelectedOption int    `json:"selectedOption"`
	}

	// NumericCommonErrorPath routes on an advanced feedback band (0-based)
	NumericCommonErrorPath struct {
		PathBase
		Destination
		ComponentID   string `json:"componentId"`
		FeedbackIndex int    `json:"feedbackIndex"`
	}

	// PathVisitor has one method per Path variant. Adding a variant breaks
	// every implementation until it handles the new case
	PathVisitor[T any] interface {
		AlwaysGoTo(AlwaysGoToPath) T
		ExitActivity(ExitActivityPath) T
		EndOfActivity(EndOfActivityPath) T
		UnknownReason(UnknownReasonPath) T
		Correct(CorrectPath) T
		Incorrect(IncorrectPath) T
		OptionSpecific(OptionSpecificPath) T
		OptionCommonError(OptionCommonErrorPath) T
		NumericCommonError(NumericCommonErrorPath) T
	}

	// Paths is an ordered path list that decodes through the type field
	Paths []Path
)

const (
	PathAlwaysGoTo         PathType = "always-go-to"
	PathExitActivity       PathType = "exit-activity"
	PathEndOfActivity      PathType = "end-of-activity"
	PathUnknownReason      PathType = "unknown-reason-path"
	PathCorrect            PathType = "correct"
	PathIncorrect          PathType = "incorrect"
	PathOptionSpecific     PathType = "option-specific"
	PathOptionCommonError  PathType = "option-common-error"
	PathNumericCommonError PathType = "numeric-common-error"
)

var (
	ErrUnknownPathType = errors.New("unknown path type")
	ErrInvalidPaths    = errors.New("paths must be a JSON array")
)

// MatchPath dispatches p to the visitor method for its variant
func MatchPath[T any](p Path, v PathVisitor[T]) T {
	switch p := p.(type) {
	case AlwaysGoToPath:
		return v.AlwaysGoTo(p)
	case ExitActivityPath:
		return v.ExitActivity(p)
	case EndOfActivityPath:
		return v.EndOfActivity(p)
	case UnknownReasonPath:
		return v.UnknownReason(p)
	case CorrectPath:
		return v.Correct(p)
	case IncorrectPath:
		return v.Incorrect(p)
	case OptionSpecificPath:
		return v.OptionSpecific(p)
	case OptionCommonErrorPath:
		return v.OptionCommonError(p)
	case NumericCommonErrorPath:
		return v.NumericCommonError(p)
	default:
		panic(fmt.Errorf("%w: %T", ErrUnknownPathType, p))
	}
}

// WithBase returns a copy of p with its shared fields updated by fn
func WithBase(p Path, fn func(*PathBase)) Path {
	b := p.Base()
	fn(&b)
	return p.withBase(b)
}

// WithDest returns a copy of p routed to the provided destination
func WithDest(p DestinationPath, dest *ScreenID) DestinationPath {
	return p.withDest(dest).(DestinationPath)
}

// Base returns the shared fields of the path
func (b PathBase) Base() PathBase {
	return b
}

// Dest returns the destination screen, or nil when not yet chosen
func (d Destination) Dest() *ScreenID {
	return d.DestinationScreenID
}

func (p AlwaysGoToPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p AlwaysGoToPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p ExitActivityPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p EndOfActivityPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p UnknownReasonPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p UnknownReasonPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p CorrectPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p CorrectPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p CorrectPath) Component() string {
	return p.ComponentID
}

func (p IncorrectPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p IncorrectPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p IncorrectPath) Component() string {
	return p.ComponentID
}

func (p OptionSpecificPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p OptionSpecificPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p OptionSpecificPath) Component() string {
	return p.ComponentID
}

func (p OptionCommonErrorPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p OptionCommonErrorPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p OptionCommonErrorPath) Component() string {
	return p.ComponentID
}

func (p NumericCommonErrorPath) withBase(b PathBase) Path {
	p.PathBase = b
	return p
}

func (p NumericCommonErrorPath) withDest(d *ScreenID) Path {
	p.DestinationScreenID = d
	return p
}

func (p NumericCommonErrorPath) Component() string {
	return p.ComponentID
}

// DecodePath decodes a single path, selecting the variant by its type field
func DecodePath(data []byte) (Path, error) {
	typ := PathType(gjson.GetBytes(data, "type").String())
	var res Path
	var err error
	switch typ {
	case PathAlwaysGoTo:
		res, err = decodeAs[AlwaysGoToPath](data)
	case PathExitActivity:
		res, err = decodeAs[ExitActivityPath](data)
	case PathEndOfActivity:
		res, err = decodeAs[EndOfActivityPath](data)
	case PathUnknownReason:
		res, err = decodeAs[UnknownReasonPath](data)
	case PathCorrect:
		res, err = decodeAs[CorrectPath](data)
	case PathIncorrect:
		res, err = decodeAs[IncorrectPath](data)
	case PathOptionSpecific:
		res, err = decodeAs[OptionSpecificPath](data)
	case PathOptionCommonError:
		res, err = decodeAs[OptionCommonErrorPath](data)
	case PathNumericCommonError:
		res, err = decodeAs[NumericCommonErrorPath](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPathType, typ)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func decodeAs[T Path](data []byte) (Path, error) {
	var res T
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// UnmarshalJSON decodes each element through DecodePath
func (p *Paths) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if parsed.Type == gjson.Null {
		*p = nil
		return nil
	}
	if !parsed.IsArray() {
		return ErrInvalidPaths
	}
	res := Paths{}
	var err error
	parsed.ForEach(func(_, value gjson.Result) bool {
		var path Path
		path, err = DecodePath([]byte(value.Raw))
		if err != nil {
			return false
		}
		res = append(res, path)
		return true
	})
	if err != nil {
		return err
	}
	*p = res
	return nil
}

// Find returns the path with the given id
func (p Paths) Find(id string) (Path, bool) {
	for _, path := range p {
		if path.Base().ID == id {
			return path, true
		}
	}
	return nil, false
}

// Clone returns a copy of the list. Path values are immutable, so the
// elements are shared
func (p Paths) Clone() Paths {
	if p == nil {
		return nil
	}
	res := make(Paths, len(p))
	copy(res, p)
	return res
}
