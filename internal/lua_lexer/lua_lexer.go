package lua_lexer

// The lexer converts a source file to a stream of tokens. The parser
// holds one token of lookahead and asks for the next token as it goes.
// Lexing errors add a message to the log and then panic with LexerPanic,
// which the parser catches at its top level so one malformed file aborts
// cleanly instead of cascading.
//
// String tokens keep the raw inner text and the exact quoting form. The
// bundler and mangler both depend on re-emitting a string byte-for-byte
// in its original quotes, so nothing here decodes escape sequences.

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luapack/luapack/internal/logger"
)

type T uint8

const (
	TEndOfFile T = iota
	TIdentifier
	TNumber
	TString

	// Punctuation
	TOpenParen
	TCloseParen
	TOpenBrace
	TCloseBrace
	TOpenBracket
	TCloseBracket
	TSemicolon
	TColon
	TDoubleColon
	TComma
	TDot
	TDotDot
	TDotDotDot
	TPlus
	TMinus
	TAsterisk
	TSlash
	TPercent
	TCaret
	THash
	TEquals
	TEqualsEquals
	TTildeEquals
	TLessThan
	TLessThanEquals
	TGreaterThan
	TGreaterThanEquals

	// Keywords
	TAnd
	TBreak
	TDo
	TElse
	TElseif
	TEnd
	TFalse
	TFor
	TFunction
	TGoto
	TIf
	TIn
	TLocal
	TNil
	TNot
	TOr
	TRepeat
	TReturn
	TThen
	TTrue
	TUntil
	TWhile
)

var tokenToString = map[T]string{
	TEndOfFile:  "end of file",
	TIdentifier: "identifier",
	TNumber:     "number",
	TString:     "string",

	TOpenParen:         "\"(\"",
	TCloseParen:        "\")\"",
	TOpenBrace:         "\"{\"",
	TCloseBrace:        "\"}\"",
	TOpenBracket:       "\"[\"",
	TCloseBracket:      "\"]\"",
	TSemicolon:         "\";\"",
	TColon:             "\":\"",
	TDoubleColon:       "\"::\"",
	TComma:             "\",\"",
	TDot:               "\".\"",
	TDotDot:            "\"..\"",
	TDotDotDot:         "\"...\"",
	TPlus:              "\"+\"",
	TMinus:             "\"-\"",
	TAsterisk:          "\"*\"",
	TSlash:             "\"/\"",
	TPercent:           "\"%\"",
	TCaret:             "\"^\"",
	THash:              "\"#\"",
	TEquals:            "\"=\"",
	TEqualsEquals:      "\"==\"",
	TTildeEquals:       "\"~=\"",
	TLessThan:          "\"<\"",
	TLessThanEquals:    "\"<=\"",
	TGreaterThan:       "\">\"",
	TGreaterThanEquals: "\">=\"",

	TAnd:      "\"and\"",
	TBreak:    "\"break\"",
	TDo:       "\"do\"",
	TElse:     "\"else\"",
	TElseif:   "\"elseif\"",
	TEnd:      "\"end\"",
	TFalse:    "\"false\"",
	TFor:      "\"for\"",
	TFunction: "\"function\"",
	TGoto:     "\"goto\"",
	TIf:       "\"if\"",
	TIn:       "\"in\"",
	TLocal:    "\"local\"",
	TNil:      "\"nil\"",
	TNot:      "\"not\"",
	TOr:       "\"or\"",
	TRepeat:   "\"repeat\"",
	TReturn:   "\"return\"",
	TThen:     "\"then\"",
	TTrue:     "\"true\"",
	TUntil:    "\"until\"",
	TWhile:    "\"while\"",
}

// Keywords maps reserved words to their tokens. It doubles as the
// reserved set the name generators consult before handing out a short
// identifier.
var Keywords = map[string]T{
	"and":      TAnd,
	"break":    TBreak,
	"do":       TDo,
	"else":     TElse,
	"elseif":   TElseif,
	"end":      TEnd,
	"false":    TFalse,
	"for":      TFor,
	"function": TFunction,
	"goto":     TGoto,
	"if":       TIf,
	"in":       TIn,
	"local":    TLocal,
	"nil":      TNil,
	"not":      TNot,
	"or":       TOr,
	"repeat":   TRepeat,
	"return":   TReturn,
	"then":     TThen,
	"true":     TTrue,
	"until":    TUntil,
	"while":    TWhile,
}

func IsIdentifierStart(codePoint rune) bool {
	return codePoint == '_' ||
		(codePoint >= 'a' && codePoint <= 'z') ||
		(codePoint >= 'A' && codePoint <= 'Z')
}

func IsIdentifierContinue(codePoint rune) bool {
	return codePoint == '_' ||
		(codePoint >= 'a' && codePoint <= 'z') ||
		(codePoint >= 'A' && codePoint <= 'Z') ||
		(codePoint >= '0' && codePoint <= '9')
}

// IsIdentifier reports whether text is usable as a bare identifier: a
// valid name that is not a reserved word.
func IsIdentifier(text string) bool {
	if len(text) == 0 {
		return false
	}
	for i, codePoint := range text {
		if i == 0 {
			if !IsIdentifierStart(codePoint) {
				return false
			}
		} else if !IsIdentifierContinue(codePoint) {
			return false
		}
	}
	return Keywords[text] == TEndOfFile
}

type LexerPanic struct{}

type Lexer struct {
	log       logger.Log
	source    logger.Source
	current   int
	start     int
	end       int
	codePoint rune

	Token      T
	Identifier string
	Number     float64

	// String token payload: the inner text exactly as written, plus the
	// quoting form. Quote is 0 for long bracket strings, in which case
	// StringLevel is the number of "=" signs in the delimiter.
	StringValue string
	StringQuote byte
	StringLevel int
}

func NewLexer(log logger.Log, source logger.Source) Lexer {
	lexer := Lexer{
		log:    log,
		source: source,
	}
	lexer.step()
	lexer.Next()
	return lexer
}

func (lexer *Lexer) Loc() logger.Loc {
	return logger.Loc{Start: int32(lexer.start)}
}

func (lexer *Lexer) Range() logger.Range {
	return logger.Range{Loc: logger.Loc{Start: int32(lexer.start)}, Len: int32(lexer.end - lexer.start)}
}

func (lexer *Lexer) Raw() string {
	return lexer.source.Contents[lexer.start:lexer.end]
}

func (lexer *Lexer) Expect(token T) {
	if lexer.Token != token {
		lexer.Expected(token)
	}
	lexer.Next()
}

func (lexer *Lexer) Expected(token T) {
	if text, ok := tokenToString[token]; ok {
		lexer.ExpectedString(text)
	} else {
		lexer.Unexpected()
	}
}

func (lexer *Lexer) ExpectedString(text string) {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.addRangeError(lexer.Range(), fmt.Sprintf("Expected %s but found %s", text, found))
	panic(LexerPanic{})
}

func (lexer *Lexer) Unexpected() {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.addRangeError(lexer.Range(), fmt.Sprintf("Unexpected %s", found))
	panic(LexerPanic{})
}

func (lexer *Lexer) SyntaxError() {
	loc := logger.Loc{Start: int32(lexer.end)}
	message := "Unexpected end of file"
	if lexer.end < len(lexer.source.Contents) {
		c, _ := utf8.DecodeRuneInString(lexer.source.Contents[lexer.end:])
		if c < 0x20 {
			message = fmt.Sprintf("Syntax error \"\\x%02X\"", c)
		} else {
			message = fmt.Sprintf("Syntax error %q", c)
		}
	}
	lexer.log.AddError(&lexer.source, loc, message)
	panic(LexerPanic{})
}

func (lexer *Lexer) addRangeError(r logger.Range, text string) {
	lexer.log.AddRangeError(&lexer.source, r, text)
}

func (lexer *Lexer) step() {
	codePoint, width := utf8.DecodeRuneInString(lexer.source.Contents[lexer.current:])

	// Use -1 to indicate the end of the file
	if width == 0 {
		codePoint = -1
	}

	lexer.codePoint = codePoint
	lexer.end = lexer.current
	lexer.current += width
}

func (lexer *Lexer) Next() {
	for {
		lexer.start = lexer.end

		switch lexer.codePoint {
		case -1:
			lexer.Token = TEndOfFile

		case ' ', '\t', '\r', '\n', '\v', '\f':
			lexer.step()
			continue

		case '(':
			lexer.step()
			lexer.Token = TOpenParen

		case ')':
			lexer.step()
			lexer.Token = TCloseParen

		case '{':
			lexer.step()
			lexer.Token = TOpenBrace

		case '}':
			lexer.step()
			lexer.Token = TCloseBrace

		case ']':
			lexer.step()
			lexer.Token = TCloseBracket

		case ';':
			lexer.step()
			lexer.Token = TSemicolon

		case ',':
			lexer.step()
			lexer.Token = TComma

		case '+':
			lexer.step()
			lexer.Token = TPlus

		case '*':
			lexer.step()
			lexer.Token = TAsterisk

		case '/':
			lexer.step()
			lexer.Token = TSlash

		case '%':
			lexer.step()
			lexer.Token = TPercent

		case '^':
			lexer.step()
			lexer.Token = TCaret

		case '#':
			lexer.step()
			lexer.Token = THash

		case ':':
			// ':' or '::'
			lexer.step()
			if lexer.codePoint == ':' {
				lexer.step()
				lexer.Token = TDoubleColon
			} else {
				lexer.Token = TColon
			}

		case '=':
			// '=' or '=='
			lexer.step()
			if lexer.codePoint == '=' {
				lexer.step()
				lexer.Token = TEqualsEquals
			} else {
				lexer.Token = TEquals
			}

		case '~':
			// '~=' only; standalone '~' is not an operator
			lexer.step()
			if lexer.codePoint == '=' {
				lexer.step()
				lexer.Token = TTildeEquals
			} else {
				lexer.SyntaxError()
			}

		case '<':
			// '<' or '<='
			lexer.step()
			if lexer.codePoint == '=' {
				lexer.step()
				lexer.Token = TLessThanEquals
			} else {
				lexer.Token = TLessThan
			}

		case '>':
			// '>' or '>='
			lexer.step()
			if lexer.codePoint == '=' {
				lexer.step()
				lexer.Token = TGreaterThanEquals
			} else {
				lexer.Token = TGreaterThan
			}

		case '-':
			// '-' or a comment
			lexer.step()
			if lexer.codePoint != '-' {
				lexer.Token = TMinus
				break
			}

			// "--[[" is a long comment, anything else runs to the end of the
			// line. A "--[=" without a matching second bracket is still a
			// line comment, so no error here.
			lexer.step()
			if lexer.codePoint == '[' {
				if level, ok := lexer.scanLongBracketOpen(); ok {
					lexer.scanLongBracketBody(level, "long comment")
					continue
				}
			}
			for lexer.codePoint != '\r' && lexer.codePoint != '\n' && lexer.codePoint != -1 {
				lexer.step()
			}
			continue

		case '[':
			// '[', '[[', or '[=*['
			if level, ok := lexer.scanLongBracketOpen(); ok {
				value := lexer.scanLongBracketBody(level, "string")
				lexer.Token = TString
				lexer.StringValue = value
				lexer.StringQuote = 0
				lexer.StringLevel = level
			} else if level > 0 {
				lexer.addRangeError(lexer.Range(), "Invalid long string delimiter")
				panic(LexerPanic{})
			} else {
				lexer.Token = TOpenBracket
			}

		case '\'', '"':
			lexer.scanShortString(byte(lexer.codePoint))

		case '.':
			// '.', '..', '...', or a number like ".5"
			lexer.step()
			if lexer.codePoint >= '0' && lexer.codePoint <= '9' {
				lexer.scanNumber(true)
				break
			}
			if lexer.codePoint == '.' {
				lexer.step()
				if lexer.codePoint == '.' {
					lexer.step()
					lexer.Token = TDotDotDot
				} else {
					lexer.Token = TDotDot
				}
			} else {
				lexer.Token = TDot
			}

		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			lexer.scanNumber(false)

		default:
			if IsIdentifierStart(lexer.codePoint) {
				lexer.step()
				for IsIdentifierContinue(lexer.codePoint) {
					lexer.step()
				}
				lexer.Identifier = lexer.Raw()
				if token, ok := Keywords[lexer.Identifier]; ok {
					lexer.Token = token
				} else {
					lexer.Token = TIdentifier
				}
				return
			}

			lexer.SyntaxError()
		}

		return
	}
}

// scanLongBracketOpen is called with the lexer sitting on a "[". It
// consumes the full "[=*[" opener and returns its level, or stops at the
// first character that breaks the pattern and reports failure along with
// how many "=" signs it consumed.
func (lexer *Lexer) scanLongBracketOpen() (int, bool) {
	lexer.step() // '['
	level := 0
	for lexer.codePoint == '=' {
		level++
		lexer.step()
	}
	if lexer.codePoint == '[' {
		lexer.step()
		return level, true
	}
	return level, false
}

// scanLongBracketBody consumes text until the matching "]=*]" close. The
// returned value is the raw inner text, leading newline included, so
// printing it back preserves the original bytes exactly.
func (lexer *Lexer) scanLongBracketBody(level int, what string) string {
	valueStart := lexer.end

	for {
		switch lexer.codePoint {
		case -1:
			lexer.addRangeError(logger.Range{Loc: lexer.Loc()}, fmt.Sprintf("Unterminated long bracket %s", what))
			panic(LexerPanic{})

		case ']':
			valueEnd := lexer.end
			lexer.step()
			closeLevel := 0
			for lexer.codePoint == '=' {
				closeLevel++
				lexer.step()
			}
			if closeLevel == level && lexer.codePoint == ']' {
				lexer.step()
				return lexer.source.Contents[valueStart:valueEnd]
			}

		default:
			lexer.step()
		}
	}
}

func (lexer *Lexer) scanShortString(quote byte) {
	lexer.step() // The opening quote
	valueStart := lexer.end

	for {
		switch lexer.codePoint {
		case -1, '\r', '\n':
			lexer.addRangeError(logger.Range{Loc: lexer.Loc()}, "Unterminated string literal")
			panic(LexerPanic{})

		case '\\':
			// Skip the escaped character so an escaped quote or backslash
			// does not end the scan. Multi-character escapes are digits and
			// letters, which cannot be mistaken for the closing quote.
			lexer.step()
			if lexer.codePoint == '\r' {
				lexer.step()
				if lexer.codePoint == '\n' {
					lexer.step()
				}
			} else if lexer.codePoint != -1 {
				lexer.step()
			}

		case rune(quote):
			value := lexer.source.Contents[valueStart:lexer.end]
			lexer.step()
			lexer.Token = TString
			lexer.StringValue = value
			lexer.StringQuote = quote
			lexer.StringLevel = 0
			return

		default:
			lexer.step()
		}
	}
}

func (lexer *Lexer) scanNumber(sawLeadingDot bool) {
	isHex := false

	if !sawLeadingDot && lexer.codePoint == '0' {
		lexer.step()
		if lexer.codePoint == 'x' || lexer.codePoint == 'X' {
			isHex = true
			lexer.step()
			for isHexDigit(lexer.codePoint) || lexer.codePoint == '.' {
				lexer.step()
			}
			if lexer.codePoint == 'p' || lexer.codePoint == 'P' {
				lexer.step()
				if lexer.codePoint == '+' || lexer.codePoint == '-' {
					lexer.step()
				}
				for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
					lexer.step()
				}
			}
		}
	}

	if !isHex {
		for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
			lexer.step()
		}
		if lexer.codePoint == '.' && !sawLeadingDot {
			lexer.step()
			for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
				lexer.step()
			}
		}
		if lexer.codePoint == 'e' || lexer.codePoint == 'E' {
			lexer.step()
			if lexer.codePoint == '+' || lexer.codePoint == '-' {
				lexer.step()
			}
			for lexer.codePoint >= '0' && lexer.codePoint <= '9' {
				lexer.step()
			}
		}
	}

	// A number must not run straight into a name: "3a" is malformed
	if IsIdentifierStart(lexer.codePoint) {
		lexer.addRangeError(logger.Range{Loc: lexer.Loc()}, fmt.Sprintf("Malformed number %q", lexer.Raw()))
		panic(LexerPanic{})
	}

	lexer.Token = TNumber
	lexer.Number = parseNumber(lexer.Raw())
}

func isHexDigit(codePoint rune) bool {
	return (codePoint >= '0' && codePoint <= '9') ||
		(codePoint >= 'a' && codePoint <= 'f') ||
		(codePoint >= 'A' && codePoint <= 'F')
}

// parseNumber is best-effort: the printer re-emits the raw literal text,
// so the numeric value is only informational.
func parseNumber(raw string) float64 {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		if !strings.ContainsAny(raw, ".pP") {
			if value, err := strconv.ParseUint(raw[2:], 16, 64); err == nil {
				return float64(value)
			}
			return 0
		}
	}
	if value, err := strconv.ParseFloat(raw, 64); err == nil {
		return value
	}
	return 0
}
