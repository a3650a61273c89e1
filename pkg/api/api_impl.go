package api

import (
	"github.com/luapack/luapack/internal/bundler"
	"github.com/luapack/luapack/internal/fs"
	"github.com/luapack/luapack/internal/logger"
)

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelDebug:
		return logger.LevelDebug
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	default:
		panic("Invalid log level")
	}
}

func validateMangle(value MangleMode) bundler.MangleMode {
	switch value {
	case MangleOff:
		return bundler.MangleOff
	case MangleManual:
		return bundler.MangleManual
	case MangleAuto:
		return bundler.MangleAuto
	default:
		panic("Invalid mangle mode")
	}
}

func validateAlphabet(value MangleAlphabet) bundler.Alphabet {
	switch value {
	case AlphabetWide:
		return bundler.AlphabetWide
	case AlphabetLower:
		return bundler.AlphabetLower
	default:
		panic("Invalid mangle alphabet")
	}
}

func convertDefines(defines []Define) []bundler.Define {
	converted := make([]bundler.Define, len(defines))
	for i, define := range defines {
		converted[i] = bundler.Define{Find: define.Find, Replace: define.Replace}
	}
	return converted
}

func messagesOfKind(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind != kind {
			continue
		}
		var location *Location
		if msg.Location != nil {
			location = &Location{
				File:     msg.Location.File,
				Line:     msg.Location.Line,
				Column:   msg.Location.Column,
				Length:   msg.Location.Length,
				LineText: msg.Location.LineText,
			}
		}
		filtered = append(filtered, Message{Text: msg.Text, Location: location})
	}
	return filtered
}

func buildImpl(options BuildOptions) BuildResult {
	var log logger.Log
	if options.LogLevel == LogLevelSilent {
		log = logger.NewDeferLog()
	} else {
		log = logger.NewStderrLog(logger.StderrOptions{
			IncludeSource: true,
			ErrorLimit:    options.ErrorLimit,
			Color:         validateColor(options.Color),
			LogLevel:      validateLogLevel(options.LogLevel),
		})
	}

	buildFS := options.FS
	if buildFS == nil {
		buildFS = fs.RealFS()
	}

	var result bundler.BundleResult
	if options.EntryPath == "" {
		log.AddError(nil, logger.Loc{}, "An entry path is required")
	} else {
		result = bundler.Bundle(buildFS, log, bundler.Options{
			EntryPath:         options.EntryPath,
			Outfile:           options.Outfile,
			Defines:           convertDefines(options.Defines),
			MangleMode:        validateMangle(options.Mangle),
			MangleSentinel:    options.MangleSentinel,
			MangleAlphabet:    validateAlphabet(options.MangleAlphabet),
			MangleMetamethods: options.MangleMetamethods,
			MinifyWhitespace:  options.MinifyWhitespace,
			Metafile:          options.Metafile != "",
			Rand:              options.Rand,
		})
	}

	msgs := log.Done()
	errors := messagesOfKind(logger.Error, msgs)
	warnings := messagesOfKind(logger.Warning, msgs)
	if len(errors) > 0 {
		return BuildResult{Errors: errors, Warnings: warnings}
	}

	outputFiles := []OutputFile{{Path: options.Outfile, Contents: result.Code}}
	if options.Metafile != "" {
		outputFiles = append(outputFiles, OutputFile{
			Path:     options.Metafile,
			Contents: []byte(result.Metafile),
		})
	}
	return BuildResult{Warnings: warnings, OutputFiles: outputFiles}
}
