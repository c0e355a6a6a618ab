package shell

// PowerShell metacharacters outside quotes. && and || are pipeline chain
// operators in PowerShell 7+.
func isPowerShellMeta(b byte) bool {
	return b == ';' || b == '|' || b == '&' || b == '(' || b == ')' ||
		b == '{' || b == '}' || b == '$' || b == '`' || b == '>' || b == '<'
}

// parsePowerShell tokenizes a PowerShell command.
//
// Both ' and " delimit strings. Single-quoted spans are fully literal;
// inside double quotes a backtick escapes the next character and an
// unescaped $ expands a variable. Outside quotes the scanner tracks whether
// it sits at the start of an expression: there a lone & is the call operator
// and ". " is the dot-source operator, both of which evaluate something
// before the visible command runs and therefore set HasSubshell.
func parsePowerShell(command string) *ParsedCommand {
	result := &ParsedCommand{
		Dialect: DialectPowerShell,
		Dangerous: containsDangerousPattern(command) ||
			containsPowerShellDangerousPattern(command),
	}

	var s tokenScanner
	inSingle := false
	inDouble := false
	atExprStart := true

	for i := 0; i < len(command); {
		c := command[i]

		// SECURITY: Unquoted Unicode lookalikes could bypass operator
		// detection.
		if c > 127 && !inSingle && !inDouble {
			result.HasChain = true
		}

		if c == '\'' && !inDouble {
			inSingle = !inSingle
			s.hadQuotes = true
			atExprStart = false
			i++
			continue
		}

		if c == '"' && !inSingle {
			inDouble = !inDouble
			s.hadQuotes = true
			atExprStart = false
			i++
			continue
		}

		// Single-quoted content is literal, no interpretation.
		if inSingle {
			s.writeByte(c)
			i++
			continue
		}

		if inDouble {
			// Backtick escapes exactly the next character.
			if c == '`' && i+1 < len(command) {
				i++
				s.writeByte(command[i])
				i++
				continue
			}
			// Variable expansion happens inside double quotes.
			if c == '$' {
				result.HasSubshell = true
			}
			s.writeByte(c)
			i++
			continue
		}

		if isSpace(c) {
			s.flush()
			atExprStart = true
			i++
			continue
		}

		// Backtick outside quotes is the escape character; escape sequences
		// are not modeled precisely, so matching is unsafe.
		if c == '`' {
			result.HasChain = true
			if i+1 < len(command) {
				i += 2
			} else {
				i++ // line continuation
			}
			continue
		}

		// && must be checked before the lone-& call operator.
		if c == '&' && i+1 < len(command) && command[i+1] == '&' {
			result.HasChain = true
			s.flushMeta()
			i += 2
			atExprStart = true
			continue
		}

		// Call operator: a lone & at expression start invokes its operand.
		if c == '&' && atExprStart {
			result.HasSubshell = true
			s.flushMeta()
			i++
			continue
		}

		// Dot-source operator requires a space after the dot (". script.ps1").
		// A path like "./folder" is an ordinary token character.
		if c == '.' && atExprStart && i+1 < len(command) &&
			(command[i+1] == ' ' || command[i+1] == '\t') {
			result.HasSubshell = true
			s.flushMeta()
			i++
			continue
		}

		if isPowerShellMeta(c) {
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
			case c == '&':
				// Lone & past expression start is ambiguous (background job
				// in PS 7+, stray operator otherwise); unsafe either way.
				result.HasChain = true
			case c == '$':
				// Covers both $( subexpressions and bare $var expansion.
				result.HasSubshell = true
			case c == '{' || c == '}':
				result.HasSubshell = true // script blocks
			case c == '(' || c == ')':
				result.HasSubshell = true // grouping and subexpressions
			case c == '>' || c == '<':
				result.HasRedirect = true
			}

			s.flushMeta()
			i++
			if (c == '|' && next == '|') || (c == '>' && next == '>') {
				i++
			}
			// ; separates statements, so the next character starts a fresh
			// expression; every other metacharacter leaves us mid-expression.
			atExprStart = c == ';'
			continue
		}

		s.writeByte(c)
		atExprStart = false
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
