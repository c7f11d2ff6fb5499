package entities

import "testing"

func TestTranslationRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  TranslationRecord
		wantErr bool
	}{
		{
			name:   "valid record",
			record: TranslationRecord{ID: "1", SourceText: "hello", TranslatedText: "hola", TargetLanguage: "es"},
		},
		{
			name:    "missing source",
			record:  TranslationRecord{TranslatedText: "hola", TargetLanguage: "es"},
			wantErr: true,
		},
		{
			name:    "missing translation",
			record:  TranslationRecord{SourceText: "hello", TargetLanguage: "es"},
			wantErr: true,
		},
		{
			name:    "missing language",
			record:  TranslationRecord{SourceText: "hello", TranslatedText: "hola"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
