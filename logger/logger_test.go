package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/salespipe/logger"
)

var _ = Describe("Logger", func() {
	var (
		logOutput *bytes.Buffer
		log       *logger.LoggerImpl
	)

	BeforeEach(func() {
		var err error
		logOutput = bytes.NewBufferString("")
		log, err = logger.NewLoggerWithOutput(logOutput, "test-service", "debug", false)
		Expect(err).ToNot(HaveOccurred())
	})

	parse := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		log.Info("Testing")
		Expect(parse()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		log.Info("Testing")
		Expect(parse()["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		log.Warn("Testing")
		Expect(parse()["level"]).To(Equal("warning"))
	})

	It("Should add a stack trace to errors when stack dumps are enabled", func() {
		log.PrintStackDump = true
		log.Error("Testing")
		actual := parse()
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		log.Info("Testing")
		Expect(parse()["msg"]).To(Equal("Testing"))
	})

	It("Should carry fields on child loggers", func() {
		child := log.WithFields(map[string]interface{}{"job": "extract_product_to_s3"})
		child.Info("Testing")
		actual := parse()
		Expect(actual["job"]).To(Equal("extract_product_to_s3"))
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should panic with the log entry", func() {
		Expect(func() { log.Panic("boom") }).To(Panic())
	})

	It("Should reject an unknown level", func() {
		_, err := logger.NewLoggerWithOutput(logOutput, "test-service", "loud", false)
		Expect(err).To(HaveOccurred())
	})
})
