package client

import (
	"fmt"
)

// NewWriterAdapter builds the per-detector writer process adapter.
// Grounded on SfCppWriterClient.get_execution_command: argv is
// stream_url, output_file, n_frames, port, user_id, broker_url, n_modules,
// detector_name, in that order.
func NewWriterAdapter(name, executable, streamURL, brokerURL, detectorName string, nModules, port int, logFolder string, timeouts ProcessTimeouts) *ExternalProcessAdapter {
	argv := func(streamURL string, port int, params map[string]any) ([]string, error) {
		outputFile, _ := params["output_file"].(string)
		if outputFile == "" {
			return nil, fmt.Errorf("writer parameters missing output_file")
		}
		nFrames := paramOrDefault(params, "n_frames", 0)
		userID := paramOrDefault(params, "user_id", -1)

		return []string{
			streamURL,
			outputFile,
			fmt.Sprintf("%v", nFrames),
			fmt.Sprintf("%d", port),
			fmt.Sprintf("%v", userID),
			brokerURL,
			fmt.Sprintf("%d", nModules),
			detectorName,
		}, nil
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	return NewExternalProcessAdapter(name, executable, streamURL, port, logFolder, argv, baseURL, timeouts)
}

func paramOrDefault(params map[string]any, key string, def any) any {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
