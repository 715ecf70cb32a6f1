package fields

var defaultSchema = mustNew([]Field{
	{Label: "Clear Cache", ID: "clear_cache", Value: Bool(false), Kind: KindCheckbox},
	{Label: "Force GPU", ID: "force_gpu", Value: Bool(false), Kind: KindCheckbox},
	{Label: "Test Mode", ID: "test", Value: Bool(false), Kind: KindCheckbox},
	{Label: "Images Database Path", ID: "db_images_name", Value: String("../db_images.sqlite3")},
	{Label: "App Database Path", ID: "db_app_name", Value: String("../db_app.sqlite3")},
	{Label: "Images Table Name", ID: "images_table_name", Value: String("images")},
	{Label: "App Table Name", ID: "app_table_name", Value: String("models")},
	{Label: "Row Limit", ID: "row_limit", Value: Null(), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1000000, Step: 1}},
	{Label: "Start Row", ID: "start_row", Value: Number(0), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1000000, Step: 1}},
	{Label: "Test Size", ID: "test_size", Value: Number(0.2), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1, Step: 0.1}},
	{Label: "Random State", ID: "random_state", Value: Number(666), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1000000, Step: 1}},
	{Label: "Input Width", ID: "input_width", Value: Number(224), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 224, Step: 1}},
	{Label: "Input Height", ID: "input_height", Value: Number(224), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 224, Step: 1}},
	{Label: "Number of Classes", ID: "num_classes", Value: Number(7), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 100, Step: 1}},
	{Label: "Dropout Rate", ID: "dropout_rate", Value: Number(0), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1, Step: 0.1}},
	{
		Label:   "Loss Function",
		ID:      "loss_function",
		Value:   String("categorical_crossentropy"),
		Kind:    KindDropdown,
		Options: []string{"categorical_crossentropy", "mean_squared_error", "binary_crossentropy"},
	},
	{Label: "Number of Epochs", ID: "num_epochs", Value: Number(7), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 100, Step: 1}},
	{Label: "Batch Size", ID: "batch_size", Value: Number(16), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 256, Step: 1}},
	{Label: "Learning Rate", ID: "learning_rate", Value: Number(0.00001), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 1, Step: 0.00001}},
	{Label: "Malignant Class Multiplier", ID: "malignant_multiplier", Value: Number(20), Kind: KindNumber, Bounds: &Bounds{Min: 0, Max: 100, Step: 1}},
})

// Defaults returns the built-in retraining schema.
func Defaults() Schema { return defaultSchema }

func mustNew(list []Field) Schema {
	s, err := New(list)
	if err != nil {
		panic("fields: invalid built-in schema: " + err.Error())
	}
	return s
}
