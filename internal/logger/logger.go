package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"soko_back_end/internal/config"
)

// New construit le logger de l'application : console lisible en développement,
// fichier JSON avec rotation en production. Le niveau vient de LOG_LEVEL.
func New(cfg *config.Config) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	var core zapcore.Core
	if cfg.IsProduction() {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // Mo
			MaxBackups: 5,
			MaxAge:     30, // jours
			Compress:   true,
		})
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level)
	}

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).Sugar()
}
