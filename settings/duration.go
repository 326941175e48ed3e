package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Duration reads "250ms", "30s" style strings or plain milliseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value) * time.Millisecond)
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return fmt.Errorf("invalid duration: %s", data)
	}
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	if millis, err := strconv.ParseInt(string(text), 10, 64); err == nil {
		*d = Duration(time.Duration(millis) * time.Millisecond)
		return nil
	}
	var parsed, err = time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
