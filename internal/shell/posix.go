package shell

// isSpace reports whether b is ASCII whitespace, matching C isspace for the
// byte range the tokenizers care about.
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\v' || b == '\f' || b == '\r'
}

func isPosixMeta(b byte) bool {
	return b == ';' || b == '|' || b == '&' || b == '(' || b == ')' ||
		b == '$' || b == '`' || b == '>' || b == '<'
}

// parsePosix tokenizes a POSIX shell command.
//
// Single quotes are fully literal. Double quotes are literal for matching
// purposes (expansion inside them is not modeled). Metacharacters flush the
// current token and are never part of one. Anything the scanner cannot model
// precisely — backslash escapes, ANSI-C quoting, unbalanced quotes, bytes
// outside ASCII — sets HasChain so the command can never auto-match.
func parsePosix(command string) *ParsedCommand {
	result := &ParsedCommand{
		Dialect:   DialectPosix,
		Dangerous: containsDangerousPattern(command),
	}

	var s tokenScanner
	inSingle := false
	inDouble := false

	for i := 0; i < len(command); {
		c := command[i]

		// SECURITY: Unquoted bytes above ASCII 127 may be Unicode lookalikes
		// for operators (e.g. U+037E Greek Question Mark resembles ;).
		if c > 127 && !inSingle && !inDouble {
			result.HasChain = true
		}

		// SECURITY: ANSI-C quoting ($'...') can encode metacharacters like
		// $'\x3b' for semicolon. Flag it before the ' toggles quote state.
		if c == '$' && i+1 < len(command) && command[i+1] == '\'' {
			result.HasChain = true
			i++ // skip the $; the quote is processed normally
			continue
		}

		// SECURITY: Backslash can escape any character including
		// metacharacters, and at end of input is a line continuation.
		// Not modeled precisely; mark unsafe for matching instead.
		if c == '\\' && !inSingle {
			result.HasChain = true
			if i+1 < len(command) {
				i += 2
			} else {
				i++
			}
			continue
		}

		if c == '\'' && !inDouble {
			inSingle = !inSingle
			s.hadQuotes = true
			i++
			continue
		}

		if c == '"' && !inSingle {
			inDouble = !inDouble
			s.hadQuotes = true
			i++
			continue
		}

		if inSingle || inDouble {
			s.writeByte(c)
			i++
			continue
		}

		if isSpace(c) {
			s.flush()
			i++
			continue
		}

		if isPosixMeta(c) {
			var next byte
			if i+1 < len(command) {
				next = command[i+1]
			}

			switch {
			case c == ';':
				result.HasChain = true
			case c == '|' && next == '|':
				result.HasChain = true
			case c == '|':
				result.HasPipe = true
			case c == '&' && next == '&':
				result.HasChain = true
			case c == '&':
				// Background execution; treated as chaining for safety.
				result.HasChain = true
			case c == '$':
				if next == '(' {
					result.HasSubshell = true
				}
			case c == '`':
				result.HasSubshell = true
			case c == '(' || c == ')':
				result.HasSubshell = true
			case c == '>' || c == '<':
				result.HasRedirect = true
			}

			s.flushMeta()
			i++
			// Two-character operators consume both characters.
			if (c == '&' && next == '&') || (c == '|' && next == '|') ||
				(c == '>' && next == '>') || (c == '<' && next == '<') {
				i++
			}
			continue
		}

		s.writeByte(c)
		i++
	}

	// Unbalanced quotes make matching unsafe.
	if inSingle || inDouble {
		result.HasChain = true
	}

	s.flush()
	result.Tokens = s.tokens
	return result
}
