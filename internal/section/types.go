package section

// Section is one heading-delimited span of a rule document
type Section struct {
	Heading    string      // heading text without the leading # markers
	Depth      int         // 1 for #, up to 6 for ######
	StartLine  int         // 1-based line of the heading in the source file
	Lines      []Line      // body lines between this heading and the next
	CodeBlocks []CodeBlock // fenced blocks captured verbatim, in order
}

// Line is one body line with its position in the source file. Positions are
// carried per line because fenced blocks are lifted out of the body.
type Line struct {
	No   int
	Text string
}

// CodeBlock is a fenced code span inside a section. Its content is literal
// example text and is never scanned for headings or directives.
type CodeBlock struct {
	Language  string
	Content   string
	StartLine int // line of the opening fence
}
