package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

func main() {
	baseURL := getEnv("POSEKIT_URL", "http://localhost:8080")
	grpcAddr := getEnv("POSEKIT_GRPC_ADDR", "localhost:9090")

	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	status, body, err := request(http.MethodGet, baseURL+"/api/v1/health", "", nil)
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", status, body)

	fmt.Println("Проверяем gRPC health...")
	if err := checkGRPC(grpcAddr); err != nil {
		fmt.Printf("Ошибка gRPC health: %v\n\n", err)
	}

	// Если передан файл OpenPose, импортируем его
	if len(os.Args) < 2 {
		fmt.Println("Для тестирования импорта запустите: smoke <путь_к_openpose.json>")
		fmt.Println("Учетные данные редактора берутся из POSEKIT_EMAIL и POSEKIT_PASSWORD")
		return
	}

	if err := testImport(baseURL, os.Args[1]); err != nil {
		fmt.Printf("Ошибка при тестировании импорта: %v\n", err)
	}
}

func checkGRPC(addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}

	fmt.Printf("gRPC health ответ:\n%s\n\n", protojson.Format(resp))
	return nil
}

func testImport(baseURL, path string) error {
	document, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	token, err := login(baseURL)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	payload, err := json.Marshal(map[string]any{
		"title":    title,
		"tags":     []string{"smoke"},
		"document": json.RawMessage(document),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Импортируем %s...\n", path)
	status, body, err := request(http.MethodPost, baseURL+"/api/v1/poses/import/openpose", token, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Ответ импорта (статус %d):\n%s\n\n", status, body)
	if status != http.StatusCreated {
		return nil
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	status, body, err = request(http.MethodGet, baseURL+"/api/v1/poses/"+created.ID+"/variants", "", nil)
	if err != nil {
		return err
	}
	fmt.Printf("Варианты позы (статус %d):\n%s\n", status, body)
	return nil
}

func login(baseURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    os.Getenv("POSEKIT_EMAIL"),
		"password": os.Getenv("POSEKIT_PASSWORD"),
	})
	if err != nil {
		return "", err
	}

	status, body, err := request(http.MethodPost, baseURL+"/api/v1/auth/login", "", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("вход не выполнен (статус %d): %s", status, body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	return resp.Token, nil
}

func request(method, url, token string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return resp.StatusCode, body, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
