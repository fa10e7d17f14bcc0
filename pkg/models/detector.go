package models

// DetectRequest представляет запрос на распознавание скелета на изображении
type DetectRequest struct {
	ImageData     []byte `json:"-"`              // Данные изображения (не сериализуем в JSON)
	ImageFilename string `json:"image_filename"` // Имя файла изображения
}

// DetectedKeypoint ключевая точка, найденная нейронной сетью
type DetectedKeypoint struct {
	X          float64 `json:"x"`          // Координата X в пикселях
	Y          float64 `json:"y"`          // Координата Y в пикселях
	Confidence float64 `json:"confidence"` // Уверенность модели
	Label      string  `json:"label"`      // Название точки (COCO)
}

// DetectResponse определяет структуру ответа от Python сервиса детекции
type DetectResponse struct {
	Status    string             `json:"status"`    // Статус выполнения (success/error)
	Message   string             `json:"message"`   // Сообщение
	Keypoints []DetectedKeypoint `json:"keypoints"` // Точки в порядке COCO
	Width     float64            `json:"width"`     // Ширина изображения
	Height    float64            `json:"height"`    // Высота изображения
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель нейронной сети
	Version     string `json:"version"`      // Версия сервиса
}
