// -----------------------------------------------------------------------
// Crash Protection - Fatal error handling and crash file generation
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// CrashLogDir is the directory where crash files will be written
var CrashLogDir = "./results/logs"

var (
	crashContextMu   sync.Mutex
	crashContextKeys []string
	crashContext     = map[string]string{}
)

// SetCrashContext records a value (config files, engine, run id, current scenario)
// that is written into any later crash report. Setting an empty value removes the key.
func SetCrashContext(key, value string) {
	crashContextMu.Lock()
	defer crashContextMu.Unlock()

	if value == "" {
		delete(crashContext, key)
		for i, k := range crashContextKeys {
			if k == key {
				crashContextKeys = append(crashContextKeys[:i], crashContextKeys[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := crashContext[key]; !ok {
		crashContextKeys = append(crashContextKeys, key)
	}
	crashContext[key] = value
}

// crashContextLines returns the recorded context in first-set order
func crashContextLines() []string {
	crashContextMu.Lock()
	defer crashContextMu.Unlock()

	lines := make([]string, 0, len(crashContext))
	for _, key := range crashContextKeys {
		if value, ok := crashContext[key]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
		}
	}
	return lines
}

// InstallCrashHandler sets the crash directory and makes sure it exists.
// Call at the very start of main() together with a deferred RecoverWithCrashFile.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}

	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
}

// WriteCrashFile writes the panic value and all goroutine stacks to a timestamped file.
// Returns the path to the crash file, or "" when it could not be written.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", timestamp))

	var report bytes.Buffer
	report.WriteString("=== VITRINE CRASH REPORT ===\n")
	report.WriteString(fmt.Sprintf("Time: %s\n", time.Now().Format(time.RFC3339)))
	report.WriteString(fmt.Sprintf("Version: %s\n\n", GetFullVersion()))

	if lines := crashContextLines(); len(lines) > 0 {
		report.WriteString("=== RUN CONTEXT ===\n")
		for _, line := range lines {
			report.WriteString(line + "\n")
		}
		report.WriteString("\n")
	}

	report.WriteString("=== PANIC VALUE ===\n")
	report.WriteString(fmt.Sprintf("%v\n\n", panicVal))

	report.WriteString("=== STACK TRACE ===\n")
	report.WriteString(stackTrace)
	report.WriteString("\n")

	report.WriteString("=== ALL GOROUTINES ===\n")
	report.WriteString(GetAllGoroutineStacks())
	report.WriteString("\n=== END CRASH REPORT ===\n")

	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n", err)
		fmt.Fprintf(os.Stderr, "%s", report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", crashPath)
	fmt.Fprintf(os.Stderr, "Panic: %v\n", panicVal)

	return crashPath
}

// GetAllGoroutineStacks returns stack traces for all goroutines
func GetAllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
		if len(buf) > 64*1024*1024 { // Max 64MB
			return string(buf[:runtime.Stack(buf, true)])
		}
	}
}

// GetStackTrace returns the current goroutine's stack trace
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is a helper for deferred panic recovery that writes a crash file.
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}
