package openparse

// mergeSeparator joins the two texts of a fused node. A single space keeps
// sentences readable when fragments split mid-paragraph; the choice is fixed
// so output text is reproducible across runs.
const mergeSeparator = " "

// MergeNodes fuses two adjacent nodes into a new node. The result's text is
// a.Text + " " + b.Text, formatting is inherited from a (first wins), the
// bounding box is the union when both nodes share a page and a's box
// otherwise, and the embedding is always unset — a fused node's vector no
// longer represents its text. Token count is recomputed with counter.
//
// MergeNodes is pure: neither input is modified.
func MergeNodes(a, b Node, counter TokenCounter) Node {
	text := a.Text
	switch {
	case a.Text == "":
		text = b.Text
	case b.Text != "":
		text = a.Text + mergeSeparator + b.Text
	}

	bbox := a.Bbox
	if a.Bbox.Page == b.Bbox.Page {
		bbox = a.Bbox.Union(b.Bbox)
	}

	return Node{
		ID:     NewID(),
		Text:   text,
		Bbox:   bbox,
		Font:   a.Font,
		Tokens: counter.Count(text),
	}
}
