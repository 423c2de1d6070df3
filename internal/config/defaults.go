package config

// Default configuration values. The dataset defaults match the IBM telco
// churn CSV, the dataset the pipeline was built around.
const (
	DefaultDataPath  = "data/telco_churn.csv"
	DefaultStateFile = ".churnlab/state.db"
	DefaultOutput    = "table"
)

// Default builds a Config with all defaults applied.
func Default() *Config {
	return &Config{
		DataPath:     DefaultDataPath,
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Workers:      0, // 0 means one worker per CPU
		Dataset: DatasetConfig{
			IDColumn:      "customerID",
			TargetColumn:  "Churn",
			PositiveLabel: "Yes",
			Categorical: []string{
				"gender", "SeniorCitizen", "Partner", "Dependents",
				"PhoneService", "MultipleLines", "InternetService",
				"OnlineSecurity", "OnlineBackup", "DeviceProtection",
				"TechSupport", "StreamingTV", "StreamingMovies",
				"Contract", "PaperlessBilling", "PaymentMethod",
			},
			Continuous: []string{"MonthlyCharges", "TotalCharges"},
			Counts:     []string{"tenure"},
		},
		Split: SplitConfig{
			Proportion: 0.8,
			Seed:       42,
		},
		Recipe: RecipeConfig{
			DiscretizeColumn: "tenure",
			Bins:             6,
			LogColumn:        "TotalCharges",
		},
		Missing: MissingConfig{
			From:    0,
			To:      200,
			Columns: []string{"tenure", "MonthlyCharges", "TotalCharges"},
		},
		Model: ModelConfig{
			Threshold:       0.5,
			Hidden:          []int{32, 16},
			Dropout:         []float64{0.2, 0.1},
			Epochs:          30,
			BatchSize:       32,
			LearningRate:    0.01,
			ValidationSplit: 0.2,
			KNNNeighbors:    15,
			Seed:            42,
		},
		Sweep: SweepConfig{
			Hidden: [][]int{
				{16}, {32, 16}, {64, 32},
			},
			Dropout: [][]float64{
				{0}, {0.2, 0.1},
			},
		},
	}
}
