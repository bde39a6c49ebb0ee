package dialogue

import (
	"fmt"
	"strings"

	"github.com/deshkavote/voicebridge/internal/entity"
)

// User-facing announcement texts. Wording follows the DeshKaVote voter UI.
const (
	textNotUnderstood = `Sorry, I did not understand that command. Please try again or say "help" for available commands.`

	textHelp = `I understand natural voice commands. You can say things like: ` +
		`"Show me the elections", "I want to vote in the municipal election", ` +
		`"List all candidates", "Vote for John Smith", "Confirm my vote", ` +
		`"Go to my profile", "Show results", or "Cancel". ` +
		`I can understand even if you don't say the exact words.`

	textNoElections = "There are no active elections available for voting."

	textNoCandidatesLoaded = `Please open an election first. Say "show elections" to see available elections.`

	textNoElectionSelected = `Please select an election first. Say "show elections" to see available elections.`

	textNoCandidatesFound = "No candidates found for this election."

	textCandidatesLoadFailed = "Sorry, could not load candidates for this election."

	textNothingToConfirm = `Nothing to confirm. Say "vote for" followed by a candidate name first.`

	textVoteCastFailed = "Sorry, there was an error casting your vote. Please try again."

	textVoteCancelled = `Vote cancelled. Say "vote for" to select a different candidate.`

	textCancelled = `Cancelled. Say "help" for available commands.`

	textNavigateProfile = "Navigating to your profile."

	textNavigateResults = "Navigating to results page."
)

// enumerateElections builds "1. name. 2. name. " for an election list.
func enumerateElections(elections []entity.Entity) string {
	var b strings.Builder
	for i, e := range elections {
		fmt.Fprintf(&b, "%d. %s. ", i+1, e.Name)
	}
	return b.String()
}

// enumerateCandidates builds "1. name from party. " for a candidate list.
// Candidates without a party label are listed by name only.
func enumerateCandidates(candidates []entity.Entity) string {
	var b strings.Builder
	for i, c := range candidates {
		if c.Label != "" {
			fmt.Fprintf(&b, "%d. %s from %s. ", i+1, c.Name, c.Label)
		} else {
			fmt.Fprintf(&b, "%d. %s. ", i+1, c.Name)
		}
	}
	return b.String()
}

func textShowElections(elections []entity.Entity) string {
	return "Available elections are: " + enumerateElections(elections) +
		`Say "vote in" followed by the election name.`
}

func textClarifyElection(elections []entity.Entity) string {
	return "I found these elections: " + enumerateElections(elections) +
		"Please say the full name of the election."
}

func textOpeningElection(name string) string {
	return fmt.Sprintf("Opening %s. Loading candidates...", name)
}

func textCandidateRoster(candidates []entity.Entity) string {
	return fmt.Sprintf("There are %d candidates. ", len(candidates)) +
		enumerateCandidates(candidates) +
		`Say "vote for" followed by the candidate name.`
}

func textListCandidates(electionName string, candidates []entity.Entity) string {
	return fmt.Sprintf("Candidates for %s are: ", electionName) +
		enumerateCandidates(candidates) +
		`Say "vote for" followed by the candidate name.`
}

func textClarifyCandidate(candidates []entity.Entity) string {
	return "Available candidates are: " + enumerateCandidates(candidates) +
		"Please say the full candidate name."
}

func textCandidateSelected(c entity.Entity) string {
	who := c.Name
	if c.Label != "" {
		who += " from " + c.Label
	}
	return fmt.Sprintf(`You selected %s. Say "confirm vote" to cast your vote, or say "cancel" to choose another candidate.`, who)
}

func textCastingVote(name string) string {
	return fmt.Sprintf("Casting your vote for %s. Please wait.", name)
}

func textVoteCastSuccess(name string) string {
	return fmt.Sprintf("Your vote has been cast successfully for %s. Thank you for voting!", name)
}
