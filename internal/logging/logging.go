package logging

import (
	"encoding/json"
	"log"
	"time"
)

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Action    string         `json:"action,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func write(level, component, action string, err error, fields map[string]any) {
	e := entry{
		TS:        time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: component,
		Action:    action,
		Fields:    fields,
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(component, action string, fields map[string]any) {
	write("info", component, action, nil, fields)
}

func Warn(component, action string, fields map[string]any) {
	write("warn", component, action, nil, fields)
}

func Error(component, action string, err error, fields map[string]any) {
	write("error", component, action, err, fields)
}
