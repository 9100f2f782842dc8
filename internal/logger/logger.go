package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type levelStyle struct {
	name     string
	level    *color.Color
	category *color.Color
}

var styles = map[LogLevel]levelStyle{
	DEBUG: {"DEBUG", color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	INFO:  {"INFO", color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	WARN:  {"WARN", color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	ERROR: {"ERROR", color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
	FATAL: {"FATAL", color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
}

var (
	timeColor = color.New(color.FgBlue)
	fileColor = color.New(color.FgMagenta)
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	logFile *os.File
	colored bool
}

// NewLogger writes coloured lines to stdout and JSON lines to logs/swiftattend-<date>.log.
func NewLogger() *Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	logFileName := filepath.Join("logs", "swiftattend-"+time.Now().Format("2006-01-02")+".log")
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	l := &Logger{out: os.Stdout, logFile: logFile, colored: true}
	l.Info("LOGGER", "Logging system initialized, file "+logFileName)
	return l
}

// NewWriterLogger logs plain terminal-format lines to w and keeps no log file.
func NewWriterLogger(w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{out: w}
}

func (l *Logger) log(level LogLevel, category, message string) {
	style, ok := styles[level]
	if !ok {
		style = styles[INFO]
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     style.name,
		Category:  strings.ToUpper(category),
		Message:   message,
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		entry.File, entry.Line = filepath.Base(file), line
	}

	terminal := l.terminalLine(entry, style)

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.out, terminal)
	if l.logFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			l.logFile.Write(append(data, '\n'))
		}
	}
}

// terminalLine renders "HH:MM:SS LEVEL [CATEGORY  ] message (file:line)".
func (l *Logger) terminalLine(entry LogEntry, style levelStyle) string {
	clock := entry.Timestamp[11:19]
	level := fmt.Sprintf("%-5s", entry.Level)
	category := fmt.Sprintf("[%-10s]", entry.Category)
	var where string
	if entry.File != "" && entry.Line > 0 {
		where = fmt.Sprintf(" (%s:%d)", entry.File, entry.Line)
	}

	if l.colored {
		clock = timeColor.Sprint(clock)
		level = style.level.Sprint(level)
		category = style.category.Sprint(category)
		if where != "" {
			where = fileColor.Sprint(where)
		}
	}
	return clock + " " + level + " " + category + " " + entry.Message + where + "\n"
}

func (l *Logger) Debug(category, message string) { l.log(DEBUG, category, message) }
func (l *Logger) Info(category, message string)  { l.log(INFO, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(WARN, category, message) }
func (l *Logger) Error(category, message string) { l.log(ERROR, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

func (l *Logger) LogRegistration(action, participantID, message string) {
	l.Info("REGISTER", fmt.Sprintf("[%s] %s - %s", action, participantID, message))
}

func (l *Logger) LogCheckIn(action, eventID, message string) {
	l.Info("CHECKIN", fmt.Sprintf("[%s] %s - %s", action, eventID, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.Info("LOGGER", "Closing log file")
		l.logFile.Close()
	}
}
