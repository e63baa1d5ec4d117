package onboard

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temirov/viewyard/internal/search"
	"github.com/temirov/viewyard/internal/ui"
	"github.com/temirov/viewyard/internal/utils"
)

const (
	selectionHeadingTemplateConstant       = "Repository selection (%d found)"
	currentSelectionTemplateConstant       = "Currently selected: %d repositories"
	selectedEntryTemplateConstant          = "  %s (%s)"
	searchPromptConstant                   = "Search repositories (or 'done' to finish): "
	selectionPromptConstant                = "Select repositories (numbers, ranges, 'all', or Enter to search again): "
	matchedEntryTemplateConstant           = "  %d. %s (%s)"
	noMatchesTemplateConstant              = "No repositories match %q."
	allAlreadySelectedMessageConstant      = "All matching repositories are already selected."
	addedRepositoriesTemplateConstant      = "Added: %s"
	selectionUsageMessageConstant          = "Use single numbers (3), comma-separated (1,3,5), ranges (1-5), or 'all'."
	finishKeywordConstant                  = "done"
	quitKeywordConstant                    = "quit"
	allKeywordConstant                     = "all"
	rangeSeparatorConstant                 = "-"
	invalidNumberTemplateConstant          = "invalid number %q"
	invalidRangeTemplateConstant           = "invalid range %q"
	numbersStartAtOneMessageConstant       = "numbers start at 1"
	numberOutOfRangeTemplateConstant       = "number must be between 1 and %d"
	descendingRangeTemplateConstant        = "invalid range: %d is greater than %d"
	candidateNameSeparatorConstant         = ", "
)

// InteractiveSelector walks the user through iterative search and numbered
// selection on the terminal.
type InteractiveSelector struct {
	reader       *bufio.Reader
	promptWriter io.Writer
	console      *ui.ConsoleWriter
}

// NewInteractiveSelector constructs a selector reading from input and writing
// prompts and listings to output.
func NewInteractiveSelector(input io.Reader, output io.Writer) *InteractiveSelector {
	return &InteractiveSelector{
		reader:       bufio.NewReader(input),
		promptWriter: utils.NewFlushingWriter(output),
		console:      ui.NewConsoleWriter(output),
	}
}

// SelectRepositories repeatedly searches the candidates and accumulates
// numbered picks until the user finishes.
func (selector *InteractiveSelector) SelectRepositories(candidates []CandidateRepository) ([]CandidateRepository, error) {
	selector.console.Headingf(selectionHeadingTemplateConstant, len(candidates))

	selectedCandidates := []CandidateRepository{}
	for {
		if len(selectedCandidates) > 0 {
			selector.console.Printf(currentSelectionTemplateConstant, len(selectedCandidates))
			for _, selectedCandidate := range selectedCandidates {
				selector.console.Successf(selectedEntryTemplateConstant, selectedCandidate.Name, selectedCandidate.Account)
			}
		}

		query, queryReadError := selector.promptLine(searchPromptConstant)
		if queryReadError != nil {
			return nil, queryReadError
		}
		if len(query) == 0 || strings.EqualFold(query, finishKeywordConstant) || strings.EqualFold(query, quitKeywordConstant) {
			return selectedCandidates, nil
		}

		matchedCandidates := filterCandidates(candidates, query)
		if len(matchedCandidates) == 0 {
			selector.console.Printf(noMatchesTemplateConstant, query)
			continue
		}

		availableCandidates := excludeSelected(matchedCandidates, selectedCandidates)
		if len(availableCandidates) == 0 {
			selector.console.Printf(allAlreadySelectedMessageConstant)
			continue
		}

		for candidateIndex, availableCandidate := range availableCandidates {
			selector.console.Printf(matchedEntryTemplateConstant, candidateIndex+1, availableCandidate.Name, availableCandidate.Account)
		}

		selection, selectionReadError := selector.promptLine(selectionPromptConstant)
		if selectionReadError != nil {
			return nil, selectionReadError
		}
		if len(selection) == 0 {
			continue
		}

		selectedIndices, parseError := ParseSelection(selection, len(availableCandidates))
		if parseError != nil {
			selector.console.Errorf("%s", parseError)
			selector.console.Printf(selectionUsageMessageConstant)
			continue
		}

		addedNames := []string{}
		for _, selectedIndex := range selectedIndices {
			selectedCandidates = append(selectedCandidates, availableCandidates[selectedIndex])
			addedNames = append(addedNames, availableCandidates[selectedIndex].Name)
		}
		selector.console.Printf(addedRepositoriesTemplateConstant, strings.Join(addedNames, candidateNameSeparatorConstant))
	}
}

func (selector *InteractiveSelector) promptLine(prompt string) (string, error) {
	if _, writeError := io.WriteString(selector.promptWriter, prompt); writeError != nil {
		return "", writeError
	}

	responseLine, readError := selector.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}
	return strings.TrimSpace(responseLine), nil
}

func filterCandidates(candidates []CandidateRepository, query string) []CandidateRepository {
	if strings.EqualFold(query, allKeywordConstant) {
		return candidates
	}

	candidateNames := make([]string, len(candidates))
	for candidateIndex, candidate := range candidates {
		candidateNames[candidateIndex] = candidate.Name
	}

	matchedCandidates := []CandidateRepository{}
	for _, matchedIndex := range search.FilterIndices(query, candidateNames) {
		matchedCandidates = append(matchedCandidates, candidates[matchedIndex])
	}
	return matchedCandidates
}

func excludeSelected(candidates []CandidateRepository, selectedCandidates []CandidateRepository) []CandidateRepository {
	availableCandidates := []CandidateRepository{}
	for _, candidate := range candidates {
		if containsCandidate(selectedCandidates, candidate) {
			continue
		}
		availableCandidates = append(availableCandidates, candidate)
	}
	return availableCandidates
}

func containsCandidate(candidates []CandidateRepository, candidate CandidateRepository) bool {
	for _, existingCandidate := range candidates {
		if existingCandidate.Name == candidate.Name && existingCandidate.Account == candidate.Account {
			return true
		}
	}
	return false
}

// ParseSelection converts one-based selection input into zero-based indices.
//
// Accepted forms: single numbers, comma or space separated lists, inclusive
// ranges like 1-5, and the keyword "all". Duplicate picks collapse to one.
func ParseSelection(input string, optionCount int) ([]int, error) {
	trimmedInput := strings.TrimSpace(input)
	if strings.EqualFold(trimmedInput, allKeywordConstant) {
		allIndices := make([]int, optionCount)
		for optionIndex := range allIndices {
			allIndices[optionIndex] = optionIndex
		}
		return allIndices, nil
	}

	selectedIndices := []int{}
	seenIndices := map[int]bool{}
	appendIndex := func(optionIndex int) {
		if seenIndices[optionIndex] {
			return
		}
		seenIndices[optionIndex] = true
		selectedIndices = append(selectedIndices, optionIndex)
	}

	for _, selectionPart := range strings.FieldsFunc(trimmedInput, isSelectionSeparator) {
		if strings.Contains(selectionPart, rangeSeparatorConstant) {
			rangeBounds := strings.Split(selectionPart, rangeSeparatorConstant)
			if len(rangeBounds) != 2 {
				return nil, fmt.Errorf(invalidRangeTemplateConstant, selectionPart)
			}
			rangeStart, startError := parseSelectionNumber(rangeBounds[0], optionCount)
			if startError != nil {
				return nil, startError
			}
			rangeEnd, endError := parseSelectionNumber(rangeBounds[1], optionCount)
			if endError != nil {
				return nil, endError
			}
			if rangeStart > rangeEnd {
				return nil, fmt.Errorf(descendingRangeTemplateConstant, rangeStart, rangeEnd)
			}
			for selectionNumber := rangeStart; selectionNumber <= rangeEnd; selectionNumber++ {
				appendIndex(selectionNumber - 1)
			}
			continue
		}

		selectionNumber, numberError := parseSelectionNumber(selectionPart, optionCount)
		if numberError != nil {
			return nil, numberError
		}
		appendIndex(selectionNumber - 1)
	}

	return selectedIndices, nil
}

func parseSelectionNumber(numberText string, optionCount int) (int, error) {
	selectionNumber, parseError := strconv.Atoi(strings.TrimSpace(numberText))
	if parseError != nil {
		return 0, fmt.Errorf(invalidNumberTemplateConstant, strings.TrimSpace(numberText))
	}
	if selectionNumber < 1 {
		return 0, fmt.Errorf("%s", numbersStartAtOneMessageConstant)
	}
	if selectionNumber > optionCount {
		return 0, fmt.Errorf(numberOutOfRangeTemplateConstant, optionCount)
	}
	return selectionNumber, nil
}

func isSelectionSeparator(candidateRune rune) bool {
	return candidateRune == ',' || candidateRune == ' '
}
