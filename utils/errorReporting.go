package utils

import (
	"log"

	"github.com/rollbar/rollbar-go"
)

var reportingEnabled bool

// InitErrorReporting enables Rollbar when a token is configured.
func InitErrorReporting(token, environment, codeVersion string) {
	if token == "" {
		log.Println("[ERROR-REPORTING] ROLLBAR_TOKEN not set, errors are only logged")
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetServerRoot("studysync")
	reportingEnabled = true
	log.Printf("[ERROR-REPORTING] Rollbar enabled for %s", environment)
}

// ReportError logs err and forwards it to Rollbar when enabled.
func ReportError(err error, extras map[string]interface{}) {
	log.Printf("[ERROR] %v %v", err, extras)
	if reportingEnabled {
		rollbar.Error(err, extras)
	}
}

// CloseErrorReporting flushes queued reports.
func CloseErrorReporting() {
	if reportingEnabled {
		rollbar.Close()
	}
}
