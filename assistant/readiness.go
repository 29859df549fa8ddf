package assistant

// Readiness is computed on demand and never stored.
type Readiness struct {
	Recognition   bool
	Synthesis     bool
	KnowledgeBase bool
}

func (r Readiness) All() bool {
	return r.Recognition && r.Synthesis && r.KnowledgeBase
}

// Troubleshooting returns one hint per unavailable collaborator.
func (r Readiness) Troubleshooting() []string {
	var hints []string
	if !r.Recognition {
		hints = append(hints, "Voice Input: check that a microphone is connected and GROQ_API_KEY or OPENAI_API_KEY is set.")
	}
	if !r.Synthesis {
		hints = append(hints, "Voice Output: check that OPENAI_API_KEY is set and an audio output device is available.")
	}
	if !r.KnowledgeBase {
		hints = append(hints, "Knowledge Base: check that the FAQ file exists and the index in the db directory was created.")
	}
	return hints
}

// Probe polls the collaborators' Ready methods. It is cheap enough to call
// on every refresh cycle.
type Probe struct {
	input  VoiceInput
	output VoiceOutput
	kb     KnowledgeBase
}

func NewProbe(input VoiceInput, output VoiceOutput, kb KnowledgeBase) *Probe {
	return &Probe{input: input, output: output, kb: kb}
}

func (p *Probe) Check() Readiness {
	return Readiness{
		Recognition:   p.input != nil && p.input.Ready(),
		Synthesis:     p.output != nil && p.output.Ready(),
		KnowledgeBase: p.kb != nil && p.kb.Ready(),
	}
}
