package hostlink

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrUnknownTag   = errors.New("unknown tag")
	ErrMalformed    = errors.New("malformed message")
)

// Terminator ends every encoded message on the wire
const Terminator = "\n\r"

// EncodeFromTracker renders m as a single line, without the terminator
func EncodeFromTracker(m FromTracker) []byte {
	switch m := m.(type) {
	case Log:
		return render(variant(m.Tag(), field("message", text(m.Message))))
	case RequestDevs:
		return render(plain(m.Tag()))
	case TrackerBus:
		return render(variant(m.Tag(), field("message", text(m.Message))))
	case ListenFor:
		return render(variant(m.Tag(), field("message", text(m.Message))))
	}
	panic(fmt.Sprintf("hostlink: unknown FromTracker %T", m))
}

// EncodeFromHost renders m as a single line, without the terminator
func EncodeFromHost(m FromHost) []byte {
	switch m := m.(type) {
	case Devs:
		names := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, n := range m.DevNames {
			names.Content = append(names.Content, text(n))
		}
		return render(variant(m.Tag(), field("dev_names", names)))
	case HostBus:
		return render(variant(m.Tag(), field("message", text(m.Message))))
	case MidiNoteOn:
		return render(variant(m.Tag(),
			field("note", num(m.Note)), field("vel", num(m.Vel)), field("channel", num(m.Channel))))
	case MidiNoteOff:
		return render(variant(m.Tag(), field("note", num(m.Note)), field("channel", num(m.Channel))))
	case MidiCC:
		return render(variant(m.Tag(),
			field("control", num(m.Control)), field("param", num(m.Param)), field("channel", num(m.Channel))))
	}
	panic(fmt.Sprintf("hostlink: unknown FromHost %T", m))
}

// DecodeFromHost parses one message. Unknown tags, unknown or missing
// fields, wrong types and integers outside 0-255 are all rejected.
func DecodeFromHost(data []byte) (FromHost, error) {
	tag, body, err := parse(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "Devs":
		f, err := fields(tag, body, "dev_names")
		if err != nil {
			return nil, err
		}
		names, err := textList(tag, "dev_names", f["dev_names"])
		if err != nil {
			return nil, err
		}
		return Devs{DevNames: names}, nil
	case busTag:
		s, err := textMessage(tag, body)
		if err != nil {
			return nil, err
		}
		return HostBus{Message: s}, nil
	case "MidiNoteOn":
		v, err := bytesOf(tag, body, "note", "vel", "channel")
		if err != nil {
			return nil, err
		}
		return MidiNoteOn{Note: v[0], Vel: v[1], Channel: v[2]}, nil
	case "MidiNoteOff":
		v, err := bytesOf(tag, body, "note", "channel")
		if err != nil {
			return nil, err
		}
		return MidiNoteOff{Note: v[0], Channel: v[1]}, nil
	case "MidiCC":
		v, err := bytesOf(tag, body, "control", "param", "channel")
		if err != nil {
			return nil, err
		}
		return MidiCC{Control: v[0], Param: v[1], Channel: v[2]}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTag, tag)
}

// DecodeFromTracker is the host side counterpart of DecodeFromHost
func DecodeFromTracker(data []byte) (FromTracker, error) {
	tag, body, err := parse(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "RequestDevs":
		if body != nil {
			return nil, fmt.Errorf("%w: %s takes no fields", ErrMalformed, tag)
		}
		return RequestDevs{}, nil
	case "Log", busTag, "ListenFor":
		s, err := textMessage(tag, body)
		if err != nil {
			return nil, err
		}
		switch tag {
		case "Log":
			return Log{Message: s}, nil
		case busTag:
			return TrackerBus{Message: s}, nil
		}
		return ListenFor{Message: s}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTag, tag)
}

func render(n *yaml.Node) []byte {
	out, err := yaml.Marshal(n)
	if err != nil {
		// the nodes built above are always representable
		panic(fmt.Sprintf("hostlink: encode: %v", err))
	}
	return unwrap(bytes.TrimRight(out, "\n"))
}

// unwrap joins the lines the emitter breaks past 80 columns. Every break
// falls between flow tokens or at a space inside a double-quoted scalar,
// where a break and its indent fold to one space.
func unwrap(out []byte) []byte {
	lines := bytes.Split(out, []byte("\n"))
	for i := 1; i < len(lines); i++ {
		lines[i] = bytes.TrimLeft(lines[i], " ")
	}
	return bytes.Join(lines, []byte(" "))
}

func plain(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// text is always double quoted so line breaks are escaped
func text(s string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: strings.ToValidUTF8(s, "�"),
		Style: yaml.DoubleQuotedStyle,
	}
}

func num(v uint8) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(v))}
}

func field(name string, v *yaml.Node) [2]*yaml.Node {
	return [2]*yaml.Node{plain(name), v}
}

func variant(tag string, fs ...[2]*yaml.Node) *yaml.Node {
	body := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for _, f := range fs {
		body.Content = append(body.Content, f[0], f[1])
	}
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Style:   yaml.FlowStyle,
		Content: []*yaml.Node{plain(tag), body},
	}
}

// parse splits a message into its tag and field mapping. Unit variants
// have a nil body.
func parse(data []byte) (string, *yaml.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, ErrEmptyMessage
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return "", nil, ErrEmptyMessage
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.ScalarNode:
		if root.Style != 0 || root.ShortTag() != "!!str" {
			return "", nil, fmt.Errorf("%w: bad tag %q", ErrMalformed, root.Value)
		}
		return root.Value, nil, nil
	case yaml.MappingNode:
		if len(root.Content) != 2 {
			return "", nil, fmt.Errorf("%w: want exactly one variant, got %d", ErrMalformed, len(root.Content)/2)
		}
		k, v := root.Content[0], root.Content[1]
		if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
			return "", nil, fmt.Errorf("%w: bad tag", ErrMalformed)
		}
		if v.Kind != yaml.MappingNode {
			return "", nil, fmt.Errorf("%w: %s fields must be a mapping", ErrMalformed, k.Value)
		}
		return k.Value, v, nil
	}
	return "", nil, fmt.Errorf("%w: unexpected document", ErrMalformed)
}

// fields checks that body has exactly the named fields, once each
func fields(tag string, body *yaml.Node, names ...string) (map[string]*yaml.Node, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: %s needs fields", ErrMalformed, tag)
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	got := make(map[string]*yaml.Node, len(names))
	for i := 0; i+1 < len(body.Content); i += 2 {
		k := body.Content[i]
		if k.Kind != yaml.ScalarNode || !want[k.Value] {
			return nil, fmt.Errorf("%w: %s has unknown field %q", ErrMalformed, tag, k.Value)
		}
		if _, dup := got[k.Value]; dup {
			return nil, fmt.Errorf("%w: %s repeats field %q", ErrMalformed, tag, k.Value)
		}
		got[k.Value] = body.Content[i+1]
	}
	for _, n := range names {
		if _, ok := got[n]; !ok {
			return nil, fmt.Errorf("%w: %s is missing field %q", ErrMalformed, tag, n)
		}
	}
	return got, nil
}

func textMessage(tag string, body *yaml.Node) (string, error) {
	f, err := fields(tag, body, "message")
	if err != nil {
		return "", err
	}
	return textValue(tag, "message", f["message"])
}

func textValue(tag, name string, n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", fmt.Errorf("%w: %s.%s must be text", ErrMalformed, tag, name)
	}
	return n.Value, nil
}

func textList(tag, name string, n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s.%s must be a list", ErrMalformed, tag, name)
	}
	var out []string
	for _, item := range n.Content {
		s, err := textValue(tag, name, item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func bytesOf(tag string, body *yaml.Node, names ...string) ([]uint8, error) {
	f, err := fields(tag, body, names...)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, len(names))
	for i, name := range names {
		n := f[name]
		if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
			return nil, fmt.Errorf("%w: %s.%s must be an integer", ErrMalformed, tag, name)
		}
		var v int64
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrMalformed, tag, name, err)
		}
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: %s.%s %d out of range 0-255", ErrMalformed, tag, name, v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
