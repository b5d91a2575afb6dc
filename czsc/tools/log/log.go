// Package log 是 logrus 的一层薄封装，整个项目统一从这里取 logger。
package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type (
	Level         = logrus.Level
	Fields        = logrus.Fields
	Logger        = logrus.Logger
	Entry         = logrus.Entry
	FieldLogger   = logrus.FieldLogger
	TextFormatter = logrus.TextFormatter
	JSONFormatter = logrus.JSONFormatter
	Formatter     = logrus.Formatter
)

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

var (
	SetFormatter    = logrus.SetFormatter
	SetLevel        = logrus.SetLevel
	GetLevel        = logrus.GetLevel
	SetOutput       = logrus.SetOutput
	ParseLevel      = logrus.ParseLevel
	StandardLogger  = logrus.StandardLogger
	New             = logrus.New
	WithField       = logrus.WithField
	WithFields      = logrus.WithFields
	WithError       = logrus.WithError
	Trace           = logrus.Trace
	Debug           = logrus.Debug
	Debugf          = logrus.Debugf
	Info            = logrus.Info
	Infof           = logrus.Infof
	Warn            = logrus.Warn
	Warnf           = logrus.Warnf
	Error           = logrus.Error
	Errorf          = logrus.Errorf
	Fatal           = logrus.Fatal
	Fatalf          = logrus.Fatalf
	IsLevelEnabled  = logrus.IsLevelEnabled
	AddHook         = logrus.AddHook
	SetReportCaller = logrus.SetReportCaller
	NewEntry        = logrus.NewEntry
)

func defaultFormatter() Formatter {
	return &TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	}
}

// Configure 按配置设置全局日志级别与输出格式，level 为空时保持 info。
func Configure(level string, json bool) error {
	lvl := InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := ParseLevel(s)
		if err != nil {
			return err
		}
		lvl = parsed
	}
	SetLevel(lvl)
	if json {
		SetFormatter(&JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		SetFormatter(defaultFormatter())
	}
	SetOutput(os.Stderr)
	return nil
}

// OrStandard 在 l 为 nil 时返回全局 logger。
func OrStandard(l FieldLogger) FieldLogger {
	if l == nil {
		return StandardLogger()
	}
	return l
}
