package regress

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalYAML writes the transition in the layout ParseTransition reads,
// with every coefficient wrapped as {const_1: v}.
func (tr Transition) MarshalYAML() (any, error) {
	root := mapping()
	for _, sec := range []struct {
		name string
		fit  Fit
	}{
		{"tau", tr.Tau},
		{"response_time", tr.ResponseTime},
	} {
		body := mapping()
		for _, c := range []struct {
			key string
			v   float64
		}{
			{"VREF_to_" + sec.name, sec.fit.VREF},
			{"VREG_to_" + sec.name, sec.fit.VREG},
			{"const_" + sec.name, sec.fit.Const},
		} {
			wrapped := mapping()
			appendPair(wrapped, "const_1", scalar(c.v))
			appendPair(body, c.key, wrapped)
		}
		appendPair(root, sec.name, body)
	}
	return root, nil
}

func SaveTransition(path string, tr Transition) error {
	data, err := yaml.Marshal(tr)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalar(v float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}
