package utils

// AvgCharsPerToken is a conservative chars-per-token estimate for code
const AvgCharsPerToken = 2

// EstimateCharsFromTokens converts a token budget to a character budget
func EstimateCharsFromTokens(tokens int) int {
	return tokens * AvgCharsPerToken
}

// TrimContentAroundCursor shrinks lines to roughly maxTokens, keeping a
// balanced window around the cursor line. Returns the window, the cursor
// row relative to the window, the cursor column, the number of lines
// dropped from the top, and whether any trimming happened. Rows are
// 0-indexed here.
func TrimContentAroundCursor(lines []string, cursorRow, cursorCol, maxTokens int) ([]string, int, int, int, bool) {
	if len(lines) == 0 {
		return lines, 0, cursorCol, 0, false
	}

	if cursorRow < 0 {
		cursorRow = 0
	}
	if cursorRow >= len(lines) {
		cursorRow = len(lines) - 1
	}

	if maxTokens <= 0 {
		return lines, cursorRow, cursorCol, 0, false
	}

	maxChars := EstimateCharsFromTokens(maxTokens)

	totalChars := 0
	for _, line := range lines {
		totalChars += len(line) + 1
	}
	if totalChars <= maxChars {
		return lines, cursorRow, cursorCol, 0, false
	}

	// Split the budget evenly above and below the cursor so the model sees
	// context on both sides, then pour any leftover into the other half.
	cursorLineChars := len(lines[cursorRow]) + 1
	halfBudget := (maxChars - cursorLineChars) / 2

	startLine := cursorRow
	charsBefore := 0
	for startLine > 0 {
		n := len(lines[startLine-1]) + 1
		if charsBefore+n > halfBudget {
			break
		}
		startLine--
		charsBefore += n
	}

	budgetAfter := halfBudget + (halfBudget - charsBefore)
	endLine := cursorRow
	charsAfter := 0
	for endLine < len(lines)-1 {
		n := len(lines[endLine+1]) + 1
		if charsAfter+n > budgetAfter {
			break
		}
		endLine++
		charsAfter += n
	}

	if unused := budgetAfter - charsAfter; unused > 0 {
		for startLine > 0 {
			n := len(lines[startLine-1]) + 1
			if charsBefore+n > halfBudget+unused {
				break
			}
			startLine--
			charsBefore += n
		}
	}

	window := make([]string, endLine-startLine+1)
	copy(window, lines[startLine:endLine+1])

	return window, cursorRow - startLine, cursorCol, startLine, true
}
