package feature

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/carprice/pkg/conv"
)

// Vocabulary 是一个类别特征的取值表，顺序与训练时一致，下标 0 为参考类别（drop-first 中被丢弃的类别）。
//
// 训练侧导出的取值可能是数字（如座位数 [2, 4, 5]），反序列化时统一转为规范字符串形式，
// 与 core.Record.Category 的结果可直接比较。
type Vocabulary []string

// Index 返回取值在表中的下标，不存在返回 -1。
func (v Vocabulary) Index(value string) int {
	for i, c := range v {
		if c == value {
			return i
		}
	}
	return -1
}

func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Vocabulary, len(raw))
	for i, item := range raw {
		switch item.(type) {
		case string, json.Number, bool:
			out[i] = conv.CanonicalString(item)
		default:
			return fmt.Errorf("vocabulary entry %d: unsupported value %v", i, item)
		}
	}
	*v = out
	return nil
}

func (v *Vocabulary) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("vocabulary: expected sequence, got kind %d", node.Kind)
	}
	out := make(Vocabulary, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("vocabulary entry %d: expected scalar", i)
		}
		out[i] = conv.CanonicalString(item.Value)
	}
	*v = out
	return nil
}
