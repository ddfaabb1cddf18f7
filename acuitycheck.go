// AcuityCheck estimates a viewer's distance from the screen out of a
// single camera snapshot and sizes a Snellen chart to match. This binary
// hosts the measurement core behind a JSON HTTP API; the interactive
// display layer lives in a separate front end.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/billie8383/AcuityCheck/detection"
	"github.com/billie8383/AcuityCheck/server"
)

var (
	listenAddr = flag.String("listen", "127.0.0.1:8080",
		"Address for the HTTP API\n\t\tExample: -listen=0.0.0.0:8080 to serve beyond localhost")
	faceModelPath = flag.String("face-model", "models/onnx/face_detection_yunet_2023mar.onnx",
		"Path to the YuNet face detection ONNX model\n\t\tFetch it with scripts/download_models.sh")
	eyeCascadePath = flag.String("eye-cascade", "models/haarcascades/haarcascade_eye_tree_eyeglasses.xml",
		"Path to the Haar eye cascade XML used when the face model yields no keypoints")
	maxImageDim = flag.Int("max-image-dim", 1920,
		"Largest snapshot edge in pixels before downscaling (0 to disable)")
	debugMode = flag.Bool("debug", false, "Enable debug logging of per-snapshot detection details")
)

// envFlags maps flag names to the environment variables that back them.
var envFlags = map[string]string{
	"listen":      "ACUITYCHECK_LISTEN",
	"face-model":  "ACUITYCHECK_FACE_MODEL",
	"eye-cascade": "ACUITYCHECK_EYE_CASCADE",
}

func main() {
	// .env is optional; explicit flags win over environment values.
	_ = godotenv.Load()
	flag.Parse()
	applyEnvOverrides()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debugMode {
		log.SetLevel(logrus.DebugLevel)
	}

	detector := detection.NewDetector(
		detection.NewYuNet(*faceModelPath),
		detection.NewEyeCascade(*eyeCascadePath),
	)
	defer detector.Close()

	if detector.FaceAvailable() {
		log.WithField("model", *faceModelPath).Info("YuNet face model found")
	} else {
		log.WithField("model", *faceModelPath).
			Warn("YuNet model not found; run scripts/download_models.sh (the eye cascade fallback needs a face box, so detection will report nothing)")
	}
	if !detector.EyesAvailable() {
		log.WithField("cascade", *eyeCascadePath).Warn("eye cascade not found; keypoint fallback disabled")
	}

	api := server.New(detector, log, *maxImageDim)
	srv := &http.Server{
		Addr:         *listenAddr,
		Handler:      api.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.WithField("addr", *listenAddr).Info("starting AcuityCheck API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

// applyEnvOverrides fills in flags the command line left at their
// defaults from the environment (including anything godotenv loaded).
func applyEnvOverrides() {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for name, env := range envFlags {
		if set[name] {
			continue
		}
		if v := os.Getenv(env); v != "" {
			flag.Set(name, v)
		}
	}
}
