package builder

import (
	"strings"

	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// OMMLToLaTeX linearizes an Office Math subtree into LaTeX for the
// renderer. Constructs it does not know are flattened to their content.
func OMMLToLaTeX(n *ooxml.Node) string {
	var sb strings.Builder
	writeLaTeX(&sb, n)
	return strings.TrimSpace(sb.String())
}

var symbolLaTeX = map[rune]string{
	'α': `\alpha`, 'β': `\beta`, 'γ': `\gamma`, 'δ': `\delta`, 'ε': `\epsilon`,
	'θ': `\theta`, 'λ': `\lambda`, 'μ': `\mu`, 'π': `\pi`, 'ρ': `\rho`,
	'σ': `\sigma`, 'τ': `\tau`, 'φ': `\phi`, 'ω': `\omega`, 'Δ': `\Delta`,
	'Σ': `\Sigma`, 'Ω': `\Omega`, '×': `\times`, '·': `\cdot`, '÷': `\div`,
	'±': `\pm`, '≤': `\leq`, '≥': `\geq`, '≠': `\neq`, '≈': `\approx`,
	'∞': `\infty`, '→': `\rightarrow`, '∂': `\partial`, '∇': `\nabla`,
	'∈': `\in`, '°': `^{\circ}`,
}

var naryLaTeX = map[string]string{
	"∑": `\sum`, "∏": `\prod`, "∫": `\int`, "∬": `\iint`, "∭": `\iiint`, "∮": `\oint`,
	"⋃": `\bigcup`, "⋂": `\bigcap`,
}

var accentLaTeX = map[string]string{
	"̂": `\hat`, "̃": `\tilde`, "̇": `\dot`, "̈": `\ddot`,
	"̄": `\bar`, "⃗": `\vec`, "̅": `\overline`,
}

var knownFunctions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "log": true, "ln": true, "exp": true,
	"lim": true, "max": true, "min": true, "sinh": true, "cosh": true, "tanh": true,
}

func writeLaTeX(sb *strings.Builder, n *ooxml.Node) {
	if n == nil {
		return
	}
	if n.IsText() {
		return
	}
	switch n.Name {
	case "m:r":
		writeMathText(sb, n.Child("m:t").TextContent())
	case "m:f":
		sb.WriteString(`\frac{`)
		writeArg(sb, n.Child("m:num"))
		sb.WriteString("}{")
		writeArg(sb, n.Child("m:den"))
		sb.WriteString("}")
	case "m:sSup":
		group(sb, n.Child("m:e"))
		sb.WriteString("^{")
		writeArg(sb, n.Child("m:sup"))
		sb.WriteString("}")
	case "m:sSub":
		group(sb, n.Child("m:e"))
		sb.WriteString("_{")
		writeArg(sb, n.Child("m:sub"))
		sb.WriteString("}")
	case "m:sSubSup":
		group(sb, n.Child("m:e"))
		sb.WriteString("_{")
		writeArg(sb, n.Child("m:sub"))
		sb.WriteString("}^{")
		writeArg(sb, n.Child("m:sup"))
		sb.WriteString("}")
	case "m:sPre":
		sb.WriteString("{}_{")
		writeArg(sb, n.Child("m:sub"))
		sb.WriteString("}^{")
		writeArg(sb, n.Child("m:sup"))
		sb.WriteString("}")
		group(sb, n.Child("m:e"))
	case "m:rad":
		deg := n.Child("m:deg")
		if deg != nil && strings.TrimSpace(OMMLToLaTeX(deg)) != "" {
			sb.WriteString(`\sqrt[`)
			writeArg(sb, deg)
			sb.WriteString("]{")
		} else {
			sb.WriteString(`\sqrt{`)
		}
		writeArg(sb, n.Child("m:e"))
		sb.WriteString("}")
	case "m:d":
		writeDelimiter(sb, n)
	case "m:nary":
		op := n.Path("m:naryPr", "m:chr").AttrOr("m:val", "∫")
		if cmd, ok := naryLaTeX[op]; ok {
			sb.WriteString(cmd)
		} else {
			sb.WriteString(op)
		}
		if sub := n.Child("m:sub"); sub != nil && OMMLToLaTeX(sub) != "" {
			sb.WriteString("_{")
			writeArg(sb, sub)
			sb.WriteString("}")
		}
		if sup := n.Child("m:sup"); sup != nil && OMMLToLaTeX(sup) != "" {
			sb.WriteString("^{")
			writeArg(sb, sup)
			sb.WriteString("}")
		}
		sb.WriteString(" ")
		writeArg(sb, n.Child("m:e"))
	case "m:func":
		name := strings.TrimSpace(OMMLToLaTeX(n.Child("m:fName")))
		if knownFunctions[name] {
			sb.WriteString(`\` + name + " ")
		} else {
			sb.WriteString(`\operatorname{` + name + "} ")
		}
		writeArg(sb, n.Child("m:e"))
	case "m:acc":
		chr := n.Path("m:accPr", "m:chr").AttrOr("m:val", "̂")
		cmd, ok := accentLaTeX[chr]
		if !ok {
			cmd = `\hat`
		}
		sb.WriteString(cmd + "{")
		writeArg(sb, n.Child("m:e"))
		sb.WriteString("}")
	case "m:bar":
		if n.Path("m:barPr", "m:pos").AttrOr("m:val", "bot") == "top" {
			sb.WriteString(`\overline{`)
		} else {
			sb.WriteString(`\underline{`)
		}
		writeArg(sb, n.Child("m:e"))
		sb.WriteString("}")
	case "m:limLow":
		group(sb, n.Child("m:e"))
		sb.WriteString("_{")
		writeArg(sb, n.Child("m:lim"))
		sb.WriteString("}")
	case "m:limUpp":
		group(sb, n.Child("m:e"))
		sb.WriteString("^{")
		writeArg(sb, n.Child("m:lim"))
		sb.WriteString("}")
	case "m:groupChr":
		sb.WriteString(`\underbrace{`)
		writeArg(sb, n.Child("m:e"))
		sb.WriteString("}")
	case "m:m":
		sb.WriteString(`\begin{matrix}`)
		for i, row := range n.ChildrenNamed("m:mr") {
			if i > 0 {
				sb.WriteString(`\\`)
			}
			for j, cell := range row.ChildrenNamed("m:e") {
				if j > 0 {
					sb.WriteString("&")
				}
				writeArg(sb, cell)
			}
		}
		sb.WriteString(`\end{matrix}`)
	case "m:eqArr":
		sb.WriteString(`\begin{aligned}`)
		for i, e := range n.ChildrenNamed("m:e") {
			if i > 0 {
				sb.WriteString(`\\`)
			}
			writeArg(sb, e)
		}
		sb.WriteString(`\end{aligned}`)
	default:
		if strings.HasSuffix(n.Name, "Pr") {
			return
		}
		for _, c := range n.Children {
			writeLaTeX(sb, c)
		}
	}
}

func writeArg(sb *strings.Builder, n *ooxml.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		writeLaTeX(sb, c)
	}
}

// group writes n braced when its content is longer than one symbol.
func group(sb *strings.Builder, n *ooxml.Node) {
	var inner strings.Builder
	writeArg(&inner, n)
	s := inner.String()
	if len([]rune(s)) <= 1 {
		sb.WriteString(s)
		return
	}
	sb.WriteString("{" + s + "}")
}

func writeDelimiter(sb *strings.Builder, n *ooxml.Node) {
	pr := n.Child("m:dPr")
	beg := pr.Child("m:begChr").AttrOr("m:val", "(")
	end := pr.Child("m:endChr").AttrOr("m:val", ")")
	sep := pr.Child("m:sepChr").AttrOr("m:val", "|")
	sb.WriteString(`\left` + delim(beg))
	for i, e := range n.ChildrenNamed("m:e") {
		if i > 0 {
			sb.WriteString(sep)
		}
		writeArg(sb, e)
	}
	sb.WriteString(`\right` + delim(end))
}

func delim(c string) string {
	switch c {
	case "":
		return "."
	case "{":
		return `\{`
	case "}":
		return `\}`
	case "〈", "⟨":
		return `\langle`
	case "〉", "⟩":
		return `\rangle`
	}
	return c
}

func writeMathText(sb *strings.Builder, s string) {
	for _, r := range s {
		if cmd, ok := symbolLaTeX[r]; ok {
			sb.WriteString(cmd + " ")
			continue
		}
		switch r {
		case '{', '}', '%', '#', '&', '$', '_':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
}
