// Package status writes the JSON side file that reports the outcome of a
// run to whoever launched it.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Suffix replaces the output extension to form the status file name.
const Suffix = ".status.json"

// Report is the status file body.
type Report struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ModelPath string `json:"model_path,omitempty"`
	Traceback string `json:"traceback,omitempty"`
}

// Path returns the status file path for an output model path:
// out/model.glb becomes out/model.status.json.
func Path(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + Suffix
}

// Success builds the report of a successful run.
func Success(message, modelPath string) Report {
	return Report{Status: StatusSuccess, Message: message, ModelPath: modelPath}
}

// Failure builds the report of a failed run. The traceback is err printed
// with %+v, which includes stack traces for wrapped errors.
func Failure(err error) Report {
	return Report{
		Status:    StatusError,
		Message:   err.Error(),
		Traceback: fmt.Sprintf("%+v", err),
	}
}

// Write stores r next to outputPath and returns the status file path.
func Write(outputPath string, r Report) (string, error) {
	path := Path(outputPath)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return path, errors.Wrap(err, "encoding status")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, errors.Wrap(err, "creating status directory")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return path, errors.Wrapf(err, "writing status file %s", path)
	}
	return path, nil
}

// Read loads a status file.
func Read(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, errors.Wrapf(err, "decoding status file %s", path)
	}
	return r, nil
}
