package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"posekit/internal/pose"

	"github.com/spf13/cobra"
)

// Форматы файлов позы
const (
	formatPoseData = "posedata"
	formatOpenPose = "openpose"
)

var (
	variantsSourceID string
	convertTo        string
)

var variantsCmd = &cobra.Command{
	Use:   "variants <file>",
	Short: "Построить варианты позы из файла PoseData или OpenPose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVariants(cmd.OutOrStdout(), args[0], variantsSourceID)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Конвертировать позу между PoseData и OpenPose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.OutOrStdout(), args[0], convertTo)
	},
}

func init() {
	variantsCmd.Flags().StringVar(&variantsSourceID, "id", "", "префикс идентификаторов вариантов")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "целевой формат: posedata или openpose (по умолчанию противоположный исходному)")
	rootCmd.AddCommand(variantsCmd, convertCmd)
}

// readPoseFile читает позу и определяет формат файла
func readPoseFile(path string) (pose.PoseData, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pose.PoseData{}, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	if pose.ValidatePoseData(data) {
		var p pose.PoseData
		if err := json.Unmarshal(data, &p); err != nil {
			return pose.PoseData{}, "", fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if err := p.Check(); err != nil {
			return pose.PoseData{}, "", fmt.Errorf("%s: %w", path, err)
		}
		return p, formatPoseData, nil
	}

	if p, ok := pose.ParseOpenPose(data); ok {
		return p, formatOpenPose, nil
	}

	return pose.PoseData{}, "", fmt.Errorf("%s is neither PoseData nor OpenPose", path)
}

func runVariants(out io.Writer, path, sourceID string) error {
	p, _, err := readPoseFile(path)
	if err != nil {
		return err
	}

	variations, err := pose.GenerateVariations(sourceID, p)
	if err != nil {
		return err
	}
	return writeJSON(out, variations)
}

func runConvert(out io.Writer, path, target string) error {
	p, format, err := readPoseFile(path)
	if err != nil {
		return err
	}

	if target == "" {
		target = formatOpenPose
		if format == formatOpenPose {
			target = formatPoseData
		}
	}

	switch target {
	case formatOpenPose:
		return writeJSON(out, pose.ToOpenPose(p))
	case formatPoseData:
		return writeJSON(out, p)
	default:
		return fmt.Errorf("unknown format %q", target)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
