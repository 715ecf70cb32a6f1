package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"skinscan-client/internal/util"
)

// Timestamp is a unix-seconds time as the backend sends it.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", string(b), err)
	}
	sec := int64(f)
	t.Time = time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
	return nil
}

// MarshalJSON writes unix seconds, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// Version identifies a trained model. The backend sends an integer primary
// key; the client treats it as an opaque string.
type Version string

// UnmarshalJSON accepts a number, a string or null.
func (v *Version) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Version(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("model version: %w", err)
		}
		*v = Version(n.String())
		return nil
	}
}

// Hyperparameters is the fixed-shape training record stored with a model.
//
// The backend stores it as a JSON-encoded string with snake_case keys; the
// dashboard labels use display keys ("Test size", ...). Both are accepted.
type Hyperparameters struct {
	TestSize           float64
	InputSize          []int // [width, height]
	DropoutRate        float64
	LossFunction       string
	NumEpochs          int
	BatchSize          int
	LearningRate       float64
	ValidationAccuracy float64
}

type hyperKey struct {
	display string
	snake   string
}

var (
	keyTestSize     = hyperKey{"Test size", "test_size"}
	keyInputSize    = hyperKey{"Input size", "input_size"}
	keyDropoutRate  = hyperKey{"Dropout rate", "dropout_rate"}
	keyLossFunction = hyperKey{"Loss function", "loss_function"}
	keyNumEpochs    = hyperKey{"Number of epochs", "num_epochs"}
	keyBatchSize    = hyperKey{"Batch size", "batch_size"}
	keyLearningRate = hyperKey{"Learning rate", "learning_rate"}
	keyValAccuracy  = hyperKey{"Validation Accuracy", "validation_accuracy"}
)

// UnmarshalJSON decodes either an object or a string holding an object.
// Unknown keys (model architecture, encoders) are ignored.
func (h *Hyperparameters) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case `""`, `"default"`:
		*h = Hyperparameters{}
		return nil
	}

	m, err := util.DecodeObject(b)
	if err != nil {
		return fmt.Errorf("hyperparameters: %w", err)
	}

	var out Hyperparameters
	if v, ok := lookupKey(m, keyTestSize); ok {
		out.TestSize, _ = util.ToFloat64(v)
	}
	if v, ok := lookupKey(m, keyInputSize); ok {
		out.InputSize, _ = util.ToIntSlice(v)
	}
	if v, ok := lookupKey(m, keyDropoutRate); ok {
		out.DropoutRate, _ = util.ToFloat64(v)
	}
	if v, ok := lookupKey(m, keyLossFunction); ok {
		out.LossFunction, _ = util.ToString(v)
	}
	if v, ok := lookupKey(m, keyNumEpochs); ok {
		out.NumEpochs, _ = util.ToInt(v)
	}
	if v, ok := lookupKey(m, keyBatchSize); ok {
		out.BatchSize, _ = util.ToInt(v)
	}
	if v, ok := lookupKey(m, keyLearningRate); ok {
		out.LearningRate, _ = util.ToFloat64(v)
	}
	if v, ok := lookupKey(m, keyValAccuracy); ok {
		out.ValidationAccuracy, _ = util.ToFloat64(v)
	}
	*h = out
	return nil
}

// MarshalJSON writes the display keys.
func (h Hyperparameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		keyTestSize.display:     h.TestSize,
		keyInputSize.display:    h.InputSize,
		keyDropoutRate.display:  h.DropoutRate,
		keyLossFunction.display: h.LossFunction,
		keyNumEpochs.display:    h.NumEpochs,
		keyBatchSize.display:    h.BatchSize,
		keyLearningRate.display: h.LearningRate,
		keyValAccuracy.display:  h.ValidationAccuracy,
	})
}

func lookupKey(m map[string]any, k hyperKey) (any, bool) {
	return util.Lookup(m, k.display, k.snake)
}

// Model is a trained classifier version. Models are created by the training
// pipeline and are read-only here.
type Model struct {
	Version         Version         `json:"version"`
	CreatedAt       Timestamp       `json:"created_at"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// UserRequest is a classification request as listed by the backend.
type UserRequest struct {
	RequestID    int       `json:"request_id"`
	CreatedAt    Timestamp `json:"created_at"`
	LesionType   string    `json:"lesion_type"`
	User         string    `json:"user"`
	Probability  *float64  `json:"probability,omitempty"`
	Localization string    `json:"localization,omitempty"`
	ModelVersion *Version  `json:"model_version,omitempty"`
	Image        []byte    `json:"image,omitempty"`
}

// RequestDetail is a single request with its explanation artifacts.
type RequestDetail struct {
	UserRequest
	FeatureImpact         json.RawMessage `json:"feature_impact,omitempty"`
	PixelImpactVisualized []byte          `json:"pixel_impact_visualized,omitempty"`
}

// TrainingJob is a retraining run tracked by the backend.
type TrainingJob struct {
	ID         string
	StartTime  Timestamp
	Parameters map[string]any
	Status     string
	Error      string
}

// UnmarshalJSON keeps numeric parameters as json.Number.
func (j *TrainingJob) UnmarshalJSON(b []byte) error {
	m, err := util.DecodeObject(b)
	if err != nil {
		return fmt.Errorf("training job: %w", err)
	}
	var out TrainingJob
	out.ID, _ = util.ToString(m["job_id"])
	if out.ID == "" {
		if n, ok := util.ToInt(m["job_id"]); ok {
			out.ID = strconv.Itoa(n)
		}
	}
	if n, ok := util.ToInt(m["start_time"]); ok {
		out.StartTime = Timestamp{time.Unix(int64(n), 0).UTC()}
	}
	if p, ok := m["parameters"].(map[string]any); ok {
		out.Parameters = p
	}
	out.Status, _ = util.ToString(m["status"])
	out.Error, _ = util.ToString(m["error"])
	*j = out
	return nil
}

// User is an account as listed for admins.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	Age       int    `json:"age,omitempty"`
	Sex       string `json:"sex,omitempty"`
}

// Registration is the payload for creating an account.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Sex      string `json:"sex"`
}

// SessionStatus is the answer of the session-status endpoint.
type SessionStatus struct {
	LoggedIn bool
	Username string
}

// AdminStatus is the answer of the admin-status endpoint.
type AdminStatus struct {
	Admin bool
}
