package lines

// Quote is the quoting state of the shell parser.
type Quote uint8

const (
	QuoteNone Quote = iota
	QuoteSingle
	QuoteDouble
	QuoteBack
)

// String returns a human-readable quote state.
func (q Quote) String() string {
	switch q {
	case QuoteNone:
		return "normal"
	case QuoteSingle:
		return "single-quote"
	case QuoteDouble:
		return "double-quote"
	case QuoteBack:
		return "backquote"
	default:
		return "unknown"
	}
}

// Construct is an open shell construct awaiting its closing counterpart.
type Construct uint8

const (
	ConstructParen    Construct = iota // ( ... )
	ConstructBrace                     // { ... }
	ConstructBracket                   // [ ... ]
	ConstructSubshell                  // $( ... )
	ConstructIf                        // if ... fi
	ConstructLoop                      // for/while/until ... done
	ConstructCase                      // case ... esac
)

// String returns the construct's opening token.
func (c Construct) String() string {
	switch c {
	case ConstructParen:
		return "("
	case ConstructBrace:
		return "{"
	case ConstructBracket:
		return "["
	case ConstructSubshell:
		return "$("
	case ConstructIf:
		return "if"
	case ConstructLoop:
		return "loop"
	case ConstructCase:
		return "case"
	default:
		return "?"
	}
}

// State is the shell parser state at a point in the buffer. The zero value
// is the initial state at the start of an empty buffer.
type State struct {
	Quote Quote
	Stack []Construct // open constructs, innermost last

	// Backslash is set when the line ended with an unquoted backslash,
	// escaping the newline into an explicit continuation.
	Backslash bool

	// midCommand is set once a command's first word has been consumed.
	// Reserved words are recognized only at command position, so `echo for`
	// stays an ordinary argument list.
	midCommand bool
}

// Clone returns a deep copy; States are stored per line and must not share
// stack storage.
func (s State) Clone() State {
	out := s
	if len(s.Stack) > 0 {
		out.Stack = make([]Construct, len(s.Stack))
		copy(out.Stack, s.Stack)
	} else {
		out.Stack = nil
	}
	return out
}

// Depth returns the construct nesting depth.
func (s State) Depth() int { return len(s.Stack) }

// NeedsContinuation reports whether the buffer is incomplete at this point:
// an open quote, an open construct, or an escaped newline.
func (s State) NeedsContinuation() bool {
	return s.Quote != QuoteNone || len(s.Stack) > 0 || s.Backslash
}

// Opening keywords push a construct; closing keywords pop their counterpart.
// Both are recognized only at command position.
var keywordOpen = map[string]Construct{
	"if":    ConstructIf,
	"for":   ConstructLoop,
	"while": ConstructLoop,
	"until": ConstructLoop,
	"case":  ConstructCase,
}

var keywordClose = map[string]Construct{
	"fi":   ConstructIf,
	"done": ConstructLoop,
	"esac": ConstructCase,
}

// keywordPrefix holds words after which the next word is again at command
// position: if/elif/while/until take a condition command, then/do/else
// introduce a body.
var keywordPrefix = map[string]bool{
	"if":    true,
	"elif":  true,
	"while": true,
	"until": true,
	"then":  true,
	"do":    true,
	"else":  true,
}

// Feed advances the state across one line of content (without its newline).
// A pending backslash continuation is consumed by the line start; unless the
// previous line continued mid-command or mid-quote, the line starts at
// command position.
func (s *State) Feed(line string) {
	cont := s.Backslash
	s.Backslash = false
	if !cont && s.Quote == QuoteNone {
		s.midCommand = false
	}

	var word []byte
	flush := func() {
		if len(word) == 0 {
			return
		}
		w := string(word)
		word = word[:0]
		if s.midCommand {
			return
		}
		if c, ok := keywordOpen[w]; ok {
			s.push(c)
		} else if c, ok := keywordClose[w]; ok {
			s.pop(c)
		}
		s.midCommand = !keywordPrefix[w]
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch s.Quote {
		case QuoteSingle:
			if ch == '\'' {
				s.Quote = QuoteNone
			}
			continue
		case QuoteDouble:
			if ch == '\\' && i+1 < len(line) {
				i++ // escaped character inside double quotes
				continue
			}
			if ch == '"' {
				s.Quote = QuoteNone
			}
			continue
		case QuoteBack:
			if ch == '\\' && i+1 < len(line) {
				i++
				continue
			}
			if ch == '`' {
				s.Quote = QuoteNone
			}
			continue
		}

		// Normal state.
		switch {
		case ch == '\\':
			if i+1 < len(line) {
				// An escaped character never forms a keyword, but it does
				// occupy the command position.
				i++
				word = word[:0]
				s.midCommand = true
			} else {
				s.Backslash = true // escaped newline
			}
			continue
		case ch == '\'':
			flush()
			s.Quote = QuoteSingle
			s.midCommand = true // a quoted word is never a keyword
		case ch == '"':
			flush()
			s.Quote = QuoteDouble
			s.midCommand = true
		case ch == '`':
			flush()
			s.Quote = QuoteBack
			s.midCommand = true
		case ch == '#':
			// Comment to end of line; only at the start of a word.
			if len(word) == 0 {
				flush()
				return
			}
			word = append(word, ch)
			continue
		case ch == ';' || ch == '&' || ch == '|':
			flush()
			s.midCommand = false
		case ch == '<' || ch == '>':
			flush()
		case ch == '$' && i+1 < len(line) && line[i+1] == '(':
			flush()
			s.push(ConstructSubshell)
			s.midCommand = false
			i++
		case ch == '(':
			flush()
			s.push(ConstructParen)
			s.midCommand = false
		case ch == ')':
			flush()
			s.popBracket(ConstructParen, ConstructSubshell)
			// A case pattern's ) introduces a command.
			s.midCommand = false
		case ch == '{':
			flush()
			s.push(ConstructBrace)
			s.midCommand = false
		case ch == '}':
			flush()
			s.popBracket(ConstructBrace)
			s.midCommand = true
		case ch == '[':
			flush()
			s.push(ConstructBracket)
			s.midCommand = true // [ is the test command; arguments follow
		case ch == ']':
			flush()
			s.popBracket(ConstructBracket)
			s.midCommand = true
		case ch == ' ' || ch == '\t':
			flush()
		default:
			// Any other byte extends the current word, so file2for3 or
			// while.txt stays one non-keyword word.
			word = append(word, ch)
			continue
		}
	}
	flush()
}

func (s *State) push(c Construct) {
	s.Stack = append(s.Stack, c)
}

// pop removes the innermost construct if it matches c. A mismatched or
// empty stack is a syntax error for the real parser; here it is ignored so
// the analyzer never underflows on partial input.
func (s *State) pop(c Construct) {
	if n := len(s.Stack); n > 0 && s.Stack[n-1] == c {
		s.Stack = s.Stack[:n-1]
	}
}

// popBracket removes the innermost construct if it is any of the given
// bracket kinds.
func (s *State) popBracket(kinds ...Construct) {
	n := len(s.Stack)
	if n == 0 {
		return
	}
	top := s.Stack[n-1]
	for _, k := range kinds {
		if top == k {
			s.Stack = s.Stack[:n-1]
			return
		}
	}
}
