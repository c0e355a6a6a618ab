package shell

func isCmdMeta(b byte) bool {
	return b == '&' || b == '|' || b == '<' || b == '>' || b == '^' || b == '%'
}

// parseCmd tokenizes a Windows cmd.exe command.
//
// Only " delimits strings; ' is an ordinary character. & is an unconditional
// command separator, ^ is the escape character, and %VAR% expansion happens
// even inside double quotes, so % sets HasSubshell regardless of quote state.
func parseCmd(command string) *ParsedCommand {
	result := &ParsedCommand{
		Dialect:   DialectCmd,
		Dangerous: containsDangerousPattern(command) || containsCmdDangerousPattern(command),
	}

	var s tokenScanner
	inDouble := false

	for i := 0; i < len(command); {
		c := command[i]

		// SECURITY: Unicode lookalikes could bypass operator detection.
		if c > 127 {
			result.HasChain = true
		}

		if c == '"' {
			inDouble = !inDouble
			s.hadQuotes = true
			i++
			continue
		}

		if inDouble {
			// cmd.exe expands %VAR% even inside double quotes.
			if c == '%' {
				result.HasSubshell = true
			}
			s.writeByte(c)
			i++
			continue
		}

		if isSpace(c) {
			s.flush()
			i++
			continue
		}

		if isCmdMeta(c) {
			var next byte
			if i+1 < len(command) {
				next = command[i+1]
			}

			switch {
			case c == '&':
				result.HasChain = true
			case c == '|' && next == '|':
				result.HasChain = true
			case c == '|':
				result.HasPipe = true
			case c == '<' || c == '>':
				result.HasRedirect = true
			case c == '^':
				// ^ escapes metacharacters (and a trailing ^ continues the
				// line); either way matching is unsafe.
				result.HasChain = true
			case c == '%':
				// %VAR% expansion can inject arbitrary values. A single bare
				// % is flagged too: cmd pseudo-variables like %cd% make even
				// partial expansions risky.
				result.HasSubshell = true
			}

			s.flushMeta()
			i++
			if (c == '&' && next == '&') || (c == '|' && next == '|') ||
				(c == '>' && next == '>') {
				i++
			}
			// The character after ^ is consumed as escaped.
			if c == '^' && i < len(command) {
				i++
			}
			continue
		}

		s.writeByte(c)
		i++
	}

	// Unbalanced quotes make matching unsafe.
	if inDouble {
		result.HasChain = true
	}

	s.flush()
	result.Tokens = s.tokens
	return result
}
