package model

// RegressionModel 是预测阶段的最小抽象：输入按模型顺序排列的特征向量，输出一个标量。
// 默认实现是 LinearModel；替换为其他回归模型时只需保证特征向量的顺序约定一致。
type RegressionModel interface {
	Name() string
	Predict(features []float64) (float64, error)
}

// Explainer 是可以给出逐特征贡献的模型。
type Explainer interface {
	Contributions(features []float64) ([]Contribution, error)
}
